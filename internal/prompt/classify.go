package prompt

import (
	"fmt"
	"strings"

	"topicgrid/internal/lang"
)

func buildClassify(p Params) (Prompt, error) {
	if len(p.Topics) == 0 {
		return Prompt{}, fmt.Errorf("%w: nothing to classify", ErrInvalidParams)
	}
	var numbered strings.Builder
	for i, t := range p.Topics {
		fmt.Fprintf(&numbered, "\n%d. %s", i+1, t)
	}

	out := Prompt{Task: TaskClassify, MaxTokens: max(200, len(p.Topics)*12), Temperature: 0.2}
	if scriptOf(p, p.Topics...) == lang.CJK {
		out.System = "你是资深内容分类器。请严格输出 JSON（仅 JSON）。"
		out.User = fmt.Sprintf("将以下选题逐条归类为以下六类之一：%s。\n严格返回 JSON 数组，长度与输入相同：%s",
			strings.Join(CategoriesZH, "、"), numbered.String())
		return out, nil
	}
	out.System = "You are a content classifier. Output JSON only."
	out.User = fmt.Sprintf("Classify each topic into exactly one of: %s. Return a pure JSON array with same length.%s",
		strings.Join(CategoriesEN, ", "), numbered.String())
	return out, nil
}
