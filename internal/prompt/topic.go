package prompt

import (
	"fmt"
	"strings"

	"topicgrid/internal/lang"
)

// Categories lists the six narrative categories in the order topic
// prompts present them.
var (
	CategoriesZH = []string{"真人真事", "争议讨论", "好奇心理", "利益驱动", "经验价值", "FOMO心态"}
	CategoriesEN = []string{"Real Story", "Debate", "Curiosity", "Benefit", "Experience", "FOMO"}
)

func buildTopics(p Params) (Prompt, error) {
	if p.Count < 1 {
		return Prompt{}, fmt.Errorf("%w: topic count %d", ErrInvalidParams, p.Count)
	}
	if p.Flow == FlowNineGrid {
		return buildNineGridTopics(p)
	}
	return buildDWHYTopics(p)
}

func buildDWHYTopics(p Params) (Prompt, error) {
	domain, who, why := p.Selected["domain"], p.Selected["who"], p.Selected["why"]
	if len(domain)+len(who)+len(why) == 0 {
		return Prompt{}, fmt.Errorf("%w: no keywords selected", ErrInvalidParams)
	}
	sample := append([]string{p.Topic}, domain...)
	sample = append(sample, who...)
	sample = append(sample, why...)
	cjk := scriptOf(p, sample...) == lang.CJK

	var system, user string
	if cjk {
		system = fmt.Sprintf(dedent(`
			你是马来西亚资深短视频爆款选题策划，使用简体中文与本土化表达，为 IG Reels / TikTok / YouTube Shorts 生成吸引点击的优质选题。
			输出规则：
			总数 %[1]d 条选题，确保以下六类主题均衡覆盖（不强制使用前缀，分类自然融入标题）：
			真人真事：真实人物经历、结果或转变
			争议讨论：引发观点碰撞、反思或辩论
			好奇心理：行业内幕、认知冲突、测试验证或揭秘
			利益驱动：直接好处、解决方案或价值承诺
			经验价值：信息差、经验分享、避雷指南
			FOMO心态：错过风险、少赚警示、时间紧迫
			标题长度15–40字，口语化、信息前置、钩子强烈，避免模板化句式。
			每个标题必须包含以下爆款元素中的至少三项：
			具体数字或数据支撑
			对比/冲突/反转
			明确对象或动作场景
			紧迫感或稀缺性暗示
			即时价值或结果承诺
			避免夸大承诺与绝对化表述。
			请直接生成 %[1]d 条选题，每行一条，无需解释或空行。`), p.Count)
		user = fmt.Sprintf("请基于以下三个维度的关键词，生成 %d 个具有爆款潜力的短视频选题：\n\n领域关键词：%s\n目标人群：%s\n痛点需求：%s\n\n请生成 %d 个爆款选题：",
			p.Count, strings.Join(domain, ", "), strings.Join(who, ", "), strings.Join(why, ", "), p.Count)
	} else {
		system = fmt.Sprintf(dedent(`
			You are a Malaysian senior short-form topic strategist.
			Output exactly %[1]d topics, one per line, spread evenly across six categories:
			%[2]s.
			- 8-20 words per line, spoken, clear hook and scene
			- Each line uses at least three of: a concrete number, contrast or reversal, a named audience or action, an urgency cue, an explicit value promise
			- Compliant wording; avoid absolute or exaggerated claims and sensitive targeting
			Generate now, no numbering, no explanations.`), p.Count, strings.Join(CategoriesEN, ", "))
		user = fmt.Sprintf("Please generate %d viral short video topics based on the following three dimensions:\n\nDomain keywords: %s\nTarget audience: %s\nPain points: %s\n\nGenerate %d viral topics:",
			p.Count, strings.Join(domain, ", "), strings.Join(who, ", "), strings.Join(why, ", "), p.Count)
	}
	return Prompt{Task: TaskTopicSynthesis, System: system, User: user, MaxTokens: 1000, Temperature: 0.8}, nil
}

func buildNineGridTopics(p Params) (Prompt, error) {
	topic := strings.TrimSpace(p.Topic)
	if topic == "" {
		return Prompt{}, fmt.Errorf("%w: empty topic", ErrInvalidParams)
	}
	cjk := scriptOf(p, topic) == lang.CJK

	var b strings.Builder
	if cjk {
		fmt.Fprintf(&b, "你是资深短视频选题专家，请基于下列信息生成%d条简洁选题标题：\n\n核心主题：%s\n可用关键词：\n", p.Count, topic)
		for _, d := range nineGridDimensions {
			fmt.Fprintf(&b, "- %s：%s\n", d.Name, strings.Join(p.Selected[d.ID], "、"))
		}
		b.WriteString(dedent(`
			要求：
			- 只输出标题本身，每行一条，不要编号或分类
			- 15-40字，口语化，信息前置，有明确钩子
			- 六类角度均衡覆盖：真人真事、争议讨论、好奇心理、利益驱动、经验价值、FOMO心态
			- 尽量多样化角度，避免重复或近义改写
			- 合规：避免夸大承诺、绝对化表述、污名化群体
			现在开始生成：`))
		return Prompt{Task: TaskTopicSynthesis, System: "只输出标题，每行一条。", User: b.String(), MaxTokens: 1200, Temperature: 0.8}, nil
	}
	fmt.Fprintf(&b, "You are a short-form video topic expert. Generate %d concise topic lines based on:\n\nCore Topic: %s\nKeywords by dimensions:\n", p.Count, topic)
	for _, d := range nineGridDimensions {
		fmt.Fprintf(&b, "- %s: %s\n", d.Label, strings.Join(p.Selected[d.ID], ", "))
	}
	b.WriteString(dedent(`
		Rules:
		- Output plain lines only, one per line, no numbering
		- 8-20 words, spoken style, early hook
		- Balance six angles: Real Story, Debate, Curiosity, Benefit, Experience, FOMO
		- Maximize diversity, avoid repetition/near duplicates
		- Compliant wording, no absolute claims
		Generate now:`))
	return Prompt{Task: TaskTopicSynthesis, System: "Output only titles, one per line.", User: b.String(), MaxTokens: 1200, Temperature: 0.8}, nil
}
