package prompt

import (
	"fmt"
	"strings"

	"topicgrid/internal/lang"
)

func buildContentPlan(p Params) (Prompt, error) {
	topic := strings.TrimSpace(p.Topic)
	if topic == "" {
		return Prompt{}, fmt.Errorf("%w: empty topic", ErrInvalidParams)
	}
	out := Prompt{Task: TaskContentPlan, MaxTokens: 800, Temperature: 0.7}
	if scriptOf(p, topic) == lang.CJK {
		out.System = dedent(`
			你是马来西亚资深短视频选题策划与脚本教练。严格输出 JSON（仅 JSON）。
			公式：HOOK -> 定位 -> 痛点/共鸣/主题 -> 方案/做法 -> CTA（行动呼吁）。
			平台：Reels/TikTok/Shorts；时长建议15–35秒；语言口语化、可拍、信息前置，避免夸大与绝对化。
			篇幅要求：
			- HOOK：1句，强钩子（对比/数字/悬念/问题）
			- 定位：1句，告诉观众“你是谁/这条对谁有用”
			- 痛点：2–3句，具体到场景/感受/成本
			- 方案：分点3–5条，每条<=20字，能直接照做（步骤/动作/比例/时机/注意点等）
			- CTA：1句，评论关键词/收藏/关注/私信引导，其一即可
			- outline：5–7条镜头脚本或字幕建议（含画面/镜头/字幕提示）`)
		out.User = fmt.Sprintf("选题：%s\n请基于上面公式生成完整内容卡。字段：{hook, positioning, painpoint, solution, cta, outline}。\n注意：solution 用1段内的短句并用顿号或分号分隔呈现3–5条；outline 至少5条。不得输出解释文本。", topic)
		return out, nil
	}
	out.System = "You are a Malaysian senior short-form video strategist and script coach. Output JSON only. " +
		"Formula: HOOK -> Positioning -> Painpoint -> Solution -> CTA. Duration 15–35s. Style: spoken, shootable, practical. " +
		"Length: HOOK 1 line; positioning 1 line; painpoint 2–3 sentences; solution 3–5 bullet points (<=20 words each); CTA 1 line; outline 5–7 shot/overlay cues."
	out.User = fmt.Sprintf("Topic: %s\nGenerate a complete content card with fields {hook, positioning, painpoint, solution, cta, outline}. "+
		"Provide 3–5 concise solution bullets in one field (separated by commas/semicolons) and at least 5 outline items.", topic)
	return out, nil
}
