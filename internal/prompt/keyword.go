package prompt

import (
	"fmt"
	"strings"

	"topicgrid/internal/lang"
)

const localStyleZH = "你是马来西亚资深短视频选题策划。请使用简体中文，并采用马来西亚本土化的中文表达习惯和词汇。"

func buildKeyword(task Task, dim string, p Params) (Prompt, error) {
	topic := strings.TrimSpace(p.Topic)
	if topic == "" {
		return Prompt{}, fmt.Errorf("%w: empty topic", ErrInvalidParams)
	}
	needed := KeywordsPerDimension - len(p.Locked)
	if needed < 1 {
		return Prompt{}, fmt.Errorf("%w: all %d keywords of %s are locked", ErrInvalidParams, KeywordsPerDimension, dim)
	}
	d, flow, ok := LookupDimension(dim)
	if !ok {
		return Prompt{}, fmt.Errorf("%w: unknown dimension %q", ErrInvalidParams, dim)
	}
	cjk := scriptOf(p, topic) == lang.CJK

	var system, user string
	if flow == FlowDWHY {
		system = dwhySystem(d.ID, cjk)
		user = dwhyUser(topic, p.Locked, needed, cjk)
	} else {
		system = nineGridSystem(topic, cjk)
		user = nineGridUser(d.ID, topic, cjk) + lockedClause(p.Locked, needed, cjk)
	}
	return Prompt{Task: task, System: system, User: user, MaxTokens: 200, Temperature: 0.7}, nil
}

func dwhyUser(topic string, locked []string, needed int, cjk bool) string {
	var b strings.Builder
	if cjk {
		fmt.Fprintf(&b, "主题：%s\n", topic)
		if len(locked) == 0 {
			fmt.Fprintf(&b, "请生成%d个关键词。", KeywordsPerDimension)
			return b.String()
		}
	} else {
		fmt.Fprintf(&b, "Topic: %s\n", topic)
		if len(locked) == 0 {
			fmt.Fprintf(&b, "Please generate %d keywords.", KeywordsPerDimension)
			return b.String()
		}
	}
	b.WriteString(strings.TrimPrefix(lockedClause(locked, needed, cjk), "\n"))
	return b.String()
}

func lockedClause(locked []string, needed int, cjk bool) string {
	if len(locked) == 0 {
		return ""
	}
	if cjk {
		return fmt.Sprintf("\n已锁定的关键词：%s\n请生成%d个新的关键词，避免与已锁定的关键词重复。", strings.Join(locked, ", "), needed)
	}
	return fmt.Sprintf("\nLocked keywords: %s\nPlease generate %d new keywords, avoiding duplication with locked keywords.", strings.Join(locked, ", "), needed)
}

func dwhySystem(dim string, cjk bool) string {
	if !cjk {
		return dedent(dwhySystemEN[dim])
	}
	return localStyleZH + "\n" + dedent(dwhySystemZH[dim])
}

var dwhySystemZH = map[string]string{
	"domain": `
		根据用户提供的主题，生成8个高度相关的关键词或关联字。
		关键词生成要求：
		- 专注于主题的核心关联性和延伸性
		- 涵盖主题的不同角度和层面
		- 包含相关的细分领域和概念
		- 适合马来西亚华人常用的表达方式
		这些关键词应该：
		1. 与主题密切相关，具有强关联性
		2. 覆盖主题的不同维度和角度
		3. 适合短视频内容创作
		4. 使用马来西亚华人常用的中文词汇
		5. 每个关键词2-6个字，简洁明了
		6. 容易理解，贴近生活
		请只返回关键词，用逗号分隔，不要添加其他说明。`,
	"who": `
		你兼具用户画像分析能力。基于主题，请生成8个“场景化用户画像标签”（3-6字），要求：
		- 用“场景/角色/行为/诉求/限制”任意两项组合；示例：通勤健身、久坐上班、外食族、夜跑党、控糖减脂、乳糖不耐、增肌备赛、家庭健身、学生宿舍、低预算党
		- 避免过于泛化或空洞词：如“健康追求/饮食控/营养补充/爱好者/族群”等单一概念；需贴近具体生活场景与动机
		- 规避敏感定向（性别/年龄/群体标签）；优先中性场景化表达
		- 可使用本土职业/称呼：SME老板、Property Agent、Lazada卖家、Grab司机、Marketer、上班族、自由职业者、学生等
		- 只输出标签，使用中文逗号分隔，不要编号或解释`,
	"why": `
		你理解本地用户的人性与痛点表达，擅长制造“秒停”级别的痛点触发。
		重要：你必须严格针对用户提供的主题，生成与该主题直接相关的痛点。
		痛点设计策略：
		1. 严格围绕主题：痛点必须与主题紧密相关，不能偏离主题
		2. 具体场景化：针对主题的具体痛点场景（如主题是“情绪管理”，痛点应该是“压力大”、“焦虑”、“失眠”等）
		3. 情感触发：能瞬间引起目标用户的情感共鸣
		4. 马来西亚本土化：使用马来西亚华人常用的表达方式
		痛点必须符合：
		- 2-6字，直击要害
		- 具体而非模糊（如主题“健身”的痛点：“腰酸背痛”、“体重超标”、“没时间运动”）
		- 能引起目标用户的即时情绪反应
		示例：
		- 主题“情绪管理”的痛点：压力大、焦虑、失眠、情绪失控、抑郁、暴躁、紧张、心烦意乱
		- 主题“减肥”的痛点：体重超标、腰粗、双下巴、穿衣不好看、自信心不足、反弹、节食痛苦、运动坚持不了
		请只返回痛点，用逗号分隔，不要解释。`,
}

var dwhySystemEN = map[string]string{
	"domain": `
		You are a professional viral content creation consultant. Please respond in English.
		Based on the user's topic, generate 8 highly relevant keywords or sub-domains with viral potential.
		These keywords should be:
		1. Closely related to the topic with viral potential
		2. Suitable for short video content creation that captures strong user attention
		3. Have high search value and traffic potential
		4. 2-6 words each, catchy and memorable
		5. Spark user curiosity and click desire
		Return only the keywords, separated by commas, without additional explanations.`,
	"who": `
		You are a professional viral content user analyst. Please respond in English.
		Generate 8 scene-based audience tags (3-6 words) for the topic. Combine scene/role/action/intent/constraint,
		e.g. commuting workout, desk job, eat-out group, night runner, low-sugar cutting, lactose-intolerant,
		bulking for contest, home workout, dorm student, budget-limited. Avoid vague single-concept words.
		Use neutral scene phrasing over sensitive demographics. Return the tags only, comma-separated, no explanations.`,
	"why": `
		You are a professional viral content psychological analyst. Please respond in English.
		Important: generate pain points strictly and directly related to the user-provided topic.
		Pain point design strategy:
		1. Strictly focus on the topic, do not deviate
		2. Target specific pain point scenarios related to the topic
		3. Trigger instant emotional resonance from target users
		Each pain point must be 2-6 words, specific rather than vague
		(e.g. for "fitness": back pain, overweight, no time to exercise).
		Return the pain points only, separated by commas, without explanations.`,
}

func nineGridSystem(topic string, cjk bool) string {
	if cjk {
		return fmt.Sprintf(dedent(`
			你是专业的关键词生成专家。请严格基于主题“%[1]s”生成关键词，要求：
			1. 关键词必须与“%[1]s”直接相关
			2. 避免过于泛化或通用的词汇
			3. 聚焦于“%[1]s”的核心特征和应用场景
			4. 使用准确、具体的行业术语`), topic)
	}
	return fmt.Sprintf(dedent(`
		You are a professional keyword generation expert. Generate keywords strictly based on the topic "%[1]s":
		1. Every keyword must relate directly to "%[1]s"
		2. Avoid generic or overly broad words
		3. Focus on the core features and use cases of "%[1]s"
		4. Use precise, concrete industry terms`), topic)
}

// nineGridBrief is the per-dimension requirement list and example set.
type nineGridBrief struct {
	zhAsk   string
	zhRules []string
	zhEg    string
	enAsk   string
	enRules []string
	enEg    string
}

var nineGridBriefs = map[string]nineGridBrief{
	"audience": {
		zhAsk: "具体的目标受众标签", zhRules: []string{"具体明确，避免过于宽泛", "符合马来西亚本土特色", "涵盖不同年龄段和背景"}, zhEg: "新装修夫妻、有小孩家庭、商铺老板、年轻租户",
		enAsk: "specific target audience labels", enRules: []string{"Be specific and precise, avoid being too broad", "Include Malaysian local characteristics", "Cover different age groups and backgrounds"}, enEg: "newly married couples, families with kids, shop owners, young tenants",
	},
	"painpoint": {
		zhAsk: "与%s直接相关的典型痛点", zhRules: []string{"必须是使用%s的人群真实面临的痛点", "与%s功能和使用场景紧密相关的担忧", "避免过于泛化的描述，要具体到%s领域"}, zhEg: "如果是护胃奶粉，应该是胃痛、消化慢、怕添加剂、预算有限",
		enAsk: "typical pain points", enRules: []string{"Real worries and fears", "Malaysian localized scenarios", "Specific perceptible problems"}, enEg: "fear of mold, fear of cold, limited budget, quality concerns",
	},
	"desire": {
		zhAsk: "梦想/愿望", zhRules: []string{"积极正面的期待", "实际可达成的目标", "情感层面的满足"}, zhEg: "想防水、想好看、想耐用、想省钱",
		enAsk: "dreams/desires", enRules: []string{"Positive expectations", "Achievable goals", "Emotional satisfaction"}, enEg: "want waterproof, want beautiful, want durable, want to save money",
	},
	"mistake": {
		zhAsk: "常见误区/错误", zhRules: []string{"用户容易犯的错误", "认知偏差和误解", "可以纠正的错误观念"}, zhEg: "只看便宜、不看材质、忽略安装、跟风购买",
		enAsk: "common mistakes/misconceptions", enRules: []string{"Mistakes users easily make", "Cognitive biases and misunderstandings", "Correctable wrong concepts"}, enEg: "only look at price, ignore material, neglect installation, follow trends",
	},
	"scenario": {
		zhAsk: "与该主题直接相关的使用场景/时机", zhRules: []string{"必须与%s紧密相关的具体使用场景", "针对%s的最佳使用时机", "避免过于泛化的场景描述"}, zhEg: "如果是护胃奶粉，应该是餐后、熬夜后、孕期、肠胃不适时",
		enAsk: "usage scenarios/timing", enRules: []string{"Specific usage environments", "Time points and seasons", "Malaysian local scenarios"}, enEg: "rainy season, renovation season, before moving, before opening",
	},
	"competitor": {
		zhAsk: "对比对象/竞争对手", zhRules: []string{"直接竞争的产品/服务", "替代方案", "传统选择vs新选择"}, zhEg: "瓷砖、木地板、复合地板、水泥地",
		enAsk: "comparison objects/competitors", enRules: []string{"Direct competing products/services", "Alternative solutions", "Traditional vs new choices"}, enEg: "tiles, wooden floor, composite floor, cement floor",
	},
	"trend": {
		zhAsk: "相关趋势/热点", zhRules: []string{"当前流行话题", "社会趋势和潮流", "马来西亚本土热点"}, zhEg: "环保装修、轻装修、马来西亚雨季、简约风格",
		enAsk: "related trends/hot topics", enRules: []string{"Current popular topics", "Social trends and fashions", "Malaysian local hot topics"}, enEg: "eco-friendly renovation, light renovation, Malaysian rainy season, minimalist style",
	},
	"story": {
		zhAsk: "故事/案例场景", zhRules: []string{"真实感人的故事背景", "具体的案例场景", "马来西亚本土特色"}, zhEg: "屋主翻新记、咖啡馆换地板、孩子房改造、老房子升级",
		enAsk: "story/case scenarios", enRules: []string{"Realistic touching story backgrounds", "Specific case scenarios", "Malaysian local characteristics"}, enEg: "homeowner renovation, cafe floor replacement, kids room makeover, old house upgrade",
	},
}

func nineGridUser(dim, topic string, cjk bool) string {
	brief := nineGridBriefs[dim]
	var b strings.Builder
	if cjk {
		fmt.Fprintf(&b, "针对主题“%s”，生成%d个%s。要求：\n", topic, KeywordsPerDimension, fillTopic(brief.zhAsk, topic))
		for _, r := range brief.zhRules {
			fmt.Fprintf(&b, "- %s\n", fillTopic(r, topic))
		}
		fmt.Fprintf(&b, "- 例如：%s\n", brief.zhEg)
		b.WriteString("请只返回关键词，用逗号分隔。")
		return b.String()
	}
	fmt.Fprintf(&b, "For the topic %q, generate %d %s. Requirements:\n", topic, KeywordsPerDimension, brief.enAsk)
	for _, r := range brief.enRules {
		fmt.Fprintf(&b, "- %s\n", r)
	}
	fmt.Fprintf(&b, "- Example: %s\n", brief.enEg)
	b.WriteString("Return only keywords, comma separated.")
	return b.String()
}

func fillTopic(s, topic string) string {
	return strings.ReplaceAll(s, "%s", topic)
}
