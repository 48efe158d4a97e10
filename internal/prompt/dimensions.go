package prompt

// Flow names a keyword board layout.
type Flow string

const (
	// FlowDWHY is the three-column Domain / Who / Why board.
	FlowDWHY Flow = "dwhy"
	// FlowNineGrid is the eight trigger dimensions around a core topic.
	FlowNineGrid Flow = "ninegrid"
)

// ParseFlow reports false for anything but the two known flows.
func ParseFlow(s string) (Flow, bool) {
	switch f := Flow(s); f {
	case FlowDWHY, FlowNineGrid:
		return f, true
	}
	return "", false
}

// Dimension is one keyword column of a board.
type Dimension struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	// Label is the English heading used in Latin-script prompts.
	Label string `json:"label"`
}

var dwhyDimensions = []Dimension{
	{ID: "domain", Name: "领域关键词", Description: "主题的核心关联与延伸", Label: "Domain keywords"},
	{ID: "who", Name: "目标人群", Description: "场景化用户画像", Label: "Target audience"},
	{ID: "why", Name: "痛点需求", Description: "与主题直接相关的痛点", Label: "Pain points"},
}

var nineGridDimensions = []Dimension{
	{ID: "audience", Name: "受众标签", Description: "谁会买", Label: "Audience"},
	{ID: "painpoint", Name: "典型痛点", Description: "怕什么", Label: "Pain Points"},
	{ID: "desire", Name: "梦想/愿望", Description: "想得到什么", Label: "Desires"},
	{ID: "mistake", Name: "误区/错误", Description: "容易踩的坑", Label: "Mistakes"},
	{ID: "scenario", Name: "场景/使用时机", Description: "什么时候用到", Label: "Scenarios"},
	{ID: "competitor", Name: "对比对象", Description: "对手是谁", Label: "Competitors"},
	{ID: "trend", Name: "趋势/热点", Description: "当前话题", Label: "Trends"},
	{ID: "story", Name: "故事/案例", Description: "真实经历", Label: "Stories"},
}

// Dimensions returns the board layout for f in display order. The slice is a copy.
func Dimensions(f Flow) []Dimension {
	switch f {
	case FlowDWHY:
		return append([]Dimension(nil), dwhyDimensions...)
	case FlowNineGrid:
		return append([]Dimension(nil), nineGridDimensions...)
	}
	return nil
}

// LookupDimension finds id in either flow.
func LookupDimension(id string) (Dimension, Flow, bool) {
	for _, d := range dwhyDimensions {
		if d.ID == id {
			return d, FlowDWHY, true
		}
	}
	for _, d := range nineGridDimensions {
		if d.ID == id {
			return d, FlowNineGrid, true
		}
	}
	return Dimension{}, "", false
}
