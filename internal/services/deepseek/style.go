package deepseek

import (
	"fmt"
	"strings"

	"listingsmith/internal/services"
)

// Style selects the voice of generated social copy.
type Style string

const (
	StyleHype         Style = "douyin_hype"
	StyleStory        Style = "douyin_story"
	StyleFunny        Style = "douyin_funny"
	StyleEmotional    Style = "douyin_emotional"
	StyleProfessional Style = "douyin_professional"
	StyleXiaohongshu  Style = "xiaohongshu"
)

var allStyles = []Style{StyleHype, StyleStory, StyleFunny, StyleEmotional, StyleProfessional, StyleXiaohongshu}

var styleNames = map[Style]string{
	StyleHype:         "爆款风格",
	StyleStory:        "故事营销",
	StyleFunny:        "幽默风趣",
	StyleEmotional:    "情感共鸣",
	StyleProfessional: "专业测评",
	StyleXiaohongshu:  "小红书风",
}

var styleDescriptions = map[Style]string{
	StyleHype:         "抓住眼球，突出卖点，适合快速吸引流量",
	StyleStory:        "通过故事讲述，增强记忆点",
	StyleFunny:        "轻松幽默，增加互动和传播",
	StyleEmotional:    "触动用户情感，建立品牌连接",
	StyleProfessional: "客观专业，突出品质和性价比",
	StyleXiaohongshu:  "真实种草，像朋友推荐",
}

// Styles returns every supported style in display order.
func Styles() []Style {
	out := make([]Style, len(allStyles))
	copy(out, allStyles)
	return out
}

// ParseStyle resolves a style key. An empty value selects StyleHype.
func ParseStyle(value string) (Style, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return StyleHype, nil
	}
	for _, s := range allStyles {
		if string(s) == value {
			return s, nil
		}
	}
	return "", services.Wrap(services.ErrValidation, "copywriting", "parse style", fmt.Sprintf("unknown style %q", value), nil)
}

// DisplayName returns the operator-facing label.
func (s Style) DisplayName() string { return styleNames[s] }

// Description returns a one-line summary of when to use the style.
func (s Style) Description() string { return styleDescriptions[s] }
