package deepseek

import (
	"fmt"
	"strings"
)

// stylePrompts holds the system prompt sent for each copywriting style.
var stylePrompts = map[Style]string{
	StyleHype: `你是抖音电商文案专家。请根据商品信息生成抖音爆款风格的文案。
要求：
1. 标题要吸引眼球，使用emoji和夸张词汇，制造紧迫感
2. 正文要突出商品的核心卖点，使用🔥等符号标注重点
3. 内容要有感染力，让用户产生购买欲望
4. 结尾要有行动号召，如"点击下方小黄车"等
5. 使用抖音流行的表达方式`,

	StyleStory: `你是抖音电商文案专家。请根据商品信息生成抖音故事风格的文案。
要求：
1. 用讲故事的方式介绍商品，营造场景感
2. 描述使用场景和用户体验
3. 情感真挚，引发共鸣
4. 通过故事传递商品价值`,

	StyleFunny: `你是抖音电商文案专家。请根据商品信息生成抖音搞笑风格的文案。
要求：
1. 使用幽默风趣的语言，轻松活泼
2. 可以适度玩梗，增加记忆点
3. 让人会心一笑的同时记住商品
4. 用轻松的方式介绍商品卖点`,

	StyleEmotional: `你是抖音电商文案专家。请根据商品信息生成抖音情感风格的文案。
要求：
1. 触动用户情感，建立情感连接
2. 强调商品带来的情感价值和生活品质提升
3. 用温暖、治愈的语言描述
4. 让用户产生"这就是我要的"感觉`,

	StyleProfessional: `你是抖音电商文案专家。请根据商品信息生成抖音专业风格的文案。
要求：
1. 客观专业地介绍商品，突出品质和性价比
2. 使用专业术语但通俗易懂
3. 强调功能特点和实用性
4. 用数据和事实说话，建立信任感`,

	StyleXiaohongshu: `你是小红书文案专家。请根据商品信息生成小红书风格的文案。
要求：
1. 标题要有种草感，真实可信
2. 像朋友推荐一样，分享真实体验
3. 使用小红书流行的表达方式
4. 强调生活方式和品质感`,
}

const responseFormatPrompt = `请按以下JSON格式返回结果：
{
  "title": "商品标题（15-25字，要吸引眼球）",
  "content": "正文内容（200-400字），包含：\n1. 开头吸引注意\n2. 商品核心卖点（用🔥等符号标注）\n3. 使用场景描述\n4. 行动号召（引导购买）",
  "hashtags": ["标签1", "标签2", "标签3", "标签4", "标签5"]
}`

func buildUserPrompt(p Product) string {
	var b strings.Builder
	b.WriteString("请为以下商品生成文案：\n")
	fmt.Fprintf(&b, "商品名称：%s\n", p.Name)
	fmt.Fprintf(&b, "品牌：%s\n", p.Brand)
	fmt.Fprintf(&b, "品类：%s\n", p.Category)
	fmt.Fprintf(&b, "材质：%s\n", p.Material)
	fmt.Fprintf(&b, "颜色：%s\n", p.Color)
	fmt.Fprintf(&b, "尺寸：%s\n", p.Size)
	fmt.Fprintf(&b, "适用人群：%s\n", p.TargetAudience)
	if sp := strings.TrimSpace(p.SellingPoints); sp != "" {
		fmt.Fprintf(&b, "卖点：%s\n", sp)
	}
	b.WriteString("\n")
	b.WriteString(responseFormatPrompt)
	return b.String()
}
