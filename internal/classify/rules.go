package classify

import "regexp"

// rule scores one category: each matching pattern adds one point.
type rule struct {
	category Category
	patterns []*regexp.Regexp
}

// defaultRules is the scoring table in tie-break order: on equal scores the
// earlier category wins.
var defaultRules = []rule{
	{FOMO, []*regexp.Regexp{
		regexp.MustCompile(`错过|最后|限时|马上|立刻|立即|赶紧|抓紧|现在就|今晚|截止|仅剩|趁|别再|不要|别犹豫|明天起|即将|涨价|停售|封禁|淘汰|晚了|赶在|最后一天|倒计时`),
		regexp.MustCompile(`(?i)\b(last chance|limited time|before it'?s too late|don'?t miss|hurry|deadline|ends (today|tonight|soon)|right now)\b`),
	}},
	{Debate, []*regexp.Regexp{
		regexp.MustCompile(`为什么|为啥|该不该|要不要|值不值|对不对|是不是|到底|该怎么|你怎么看|争议|辩论|反对|反驳|吐槽|谣言|骗局|坑|踩雷`),
		regexp.MustCompile(`[?？]`),
		regexp.MustCompile(`(?i)\b(why|should|worth it|overrated|myth|scam|debate|really)\b`),
	}},
	{RealStory, []*regexp.Regexp{
		regexp.MustCompile(`我|亲身|真实|经历|故事|案例|记录|日记|挑战|实验|复盘|老板|顾客|客户|学员|网友|朋友|邻居|同事|妈妈|爸爸|孩子|他|她`),
		regexp.MustCompile(`(?i)\b(i|my|me|we|our|story|true|challenge|days? of)\b`),
	}},
	{Curiosity, []*regexp.Regexp{
		regexp.MustCompile(`揭秘|内幕|真相|原来|竟然|你不知道|不知道的|首次|第一次|隐藏|秘密|冷知识|黑科技|测试|测评|实测|对比|PK|差距|反转`),
		regexp.MustCompile(`(?i)\b(secret|truth|revealed|hidden|nobody tells|tested|vs|versus|surprising)\b`),
	}},
	{Experience, []*regexp.Regexp{
		regexp.MustCompile(`经验|心得|建议|避雷|注意|要点|清单|合集|盘点|指南|教程|技巧|方法|流程|步骤|策略|框架|心法|案例拆解|模版|模板|套路|三招|N招|教你|怎么做|做对`),
		regexp.MustCompile(`\d+\s*(招|步|技巧)`),
		regexp.MustCompile(`(?i)\b(how to|tips?|guide|steps?|checklist|mistakes to avoid|lessons?)\b`),
	}},
	{Benefit, []*regexp.Regexp{
		regexp.MustCompile(`省钱|省时|省力|划算|最划算|性价比|优惠|折扣|收益|回报|赚钱|变现|业绩|增长|提升|提高|暴涨|翻倍|转化|效率|成本|结果|价值`),
		regexp.MustCompile(`(?i)\b(save|cheaper|profit|earn|boost|double|roi|results?)\b`),
	}},
}

// score returns the best category and its score. Zero means no rule matched.
func score(rules []rule, topic string) (Category, int) {
	best, bestScore := Curiosity, 0
	for _, r := range rules {
		s := 0
		for _, p := range r.patterns {
			if p.MatchString(topic) {
				s++
			}
		}
		if s > bestScore {
			best, bestScore = r.category, s
		}
	}
	return best, bestScore
}
