package line

import (
	"fmt"

	"bgclub-bot/internal/core/domain"
)

// renderAll converts core messages to Messaging API message objects.
func renderAll(messages []domain.Message) []map[string]interface{} {
	rendered := make([]map[string]interface{}, 0, len(messages))
	for _, message := range messages {
		rendered = append(rendered, render(message))
	}
	return rendered
}

func render(message domain.Message) map[string]interface{} {
	switch m := message.(type) {
	case domain.Text:
		return map[string]interface{}{
			"type": "text",
			"text": m.Text,
		}
	case domain.Buttons:
		actions := make([]map[string]interface{}, 0, len(m.Options))
		for _, option := range m.Options {
			actions = append(actions, map[string]interface{}{
				"type":  "message",
				"label": option.Label,
				"text":  option.SendText,
			})
		}
		return map[string]interface{}{
			"type":    "template",
			"altText": m.Alt,
			"template": map[string]interface{}{
				"type":    "buttons",
				"text":    m.Title,
				"actions": actions,
			},
		}
	case domain.SearchPage:
		return renderSearchPage(m)
	default:
		// Unknown message kinds should never reach the wire.
		return map[string]interface{}{
			"type": "text",
			"text": "我壞掉了😵 輸入「重置」重新來過吧",
		}
	}
}

// renderSearchPage builds the flex bubble for one page of search results.
// Paging buttons are always present; an unavailable direction is greyed
// out instead of removed so the layout never jumps.
func renderSearchPage(page domain.SearchPage) map[string]interface{} {
	prevColor := "#1DB446"
	if !page.HasPrev {
		prevColor = "#CCCCCC"
	}
	nextColor := "#1DB446"
	if !page.HasNext {
		nextColor = "#CCCCCC"
	}

	return map[string]interface{}{
		"type":    "flex",
		"altText": fmt.Sprintf("搜尋結果 第%d頁", page.Page+1),
		"contents": map[string]interface{}{
			"type": "bubble",
			"header": map[string]interface{}{
				"type":   "box",
				"layout": "vertical",
				"contents": []map[string]interface{}{
					{
						"type":   "text",
						"text":   "🎲 桌遊搜尋結果",
						"weight": "bold",
						"size":   "lg",
						"color":  "#1DB446",
					},
					{
						"type":   "text",
						"text":   fmt.Sprintf("搜尋「%s」包含「%s」", page.Field, page.Value),
						"size":   "sm",
						"color":  "#666666",
						"margin": "sm",
					},
				},
				"backgroundColor": "#F0F8FF",
				"paddingAll":      "md",
			},
			"body": map[string]interface{}{
				"type":   "box",
				"layout": "vertical",
				"contents": []map[string]interface{}{
					{
						"type":   "text",
						"text":   fmt.Sprintf("📊 第 %d 頁 / 共 %d 頁  共找到 %d 個結果", page.Page+1, page.TotalPages, page.Total),
						"size":   "sm",
						"color":  "#666666",
						"margin": "none",
						"weight": "bold",
					},
					{
						"type":   "separator",
						"margin": "md",
					},
					{
						"type":   "text",
						"text":   page.Body,
						"wrap":   true,
						"size":   "sm",
						"margin": "md",
					},
				},
				"paddingAll": "md",
			},
			"footer": map[string]interface{}{
				"type":   "box",
				"layout": "horizontal",
				"contents": []map[string]interface{}{
					{
						"type": "button",
						"action": map[string]interface{}{
							"type":  "message",
							"label": "◀ 上一頁",
							"text":  "上一頁",
						},
						"color":  prevColor,
						"style":  "primary",
						"height": "sm",
						"flex":   1,
					},
					{
						"type":   "separator",
						"margin": "sm",
					},
					{
						"type": "button",
						"action": map[string]interface{}{
							"type":  "message",
							"label": "下一頁 ▶",
							"text":  "下一頁",
						},
						"color":  nextColor,
						"style":  "primary",
						"height": "sm",
						"flex":   1,
					},
				},
				"spacing":    "sm",
				"paddingAll": "md",
			},
		},
	}
}
