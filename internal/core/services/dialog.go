package services

import "strings"

// dialogEntry is one canned small-talk reply. Triggers are matched as
// lowercase substrings after the command table gets its chance.
type dialogEntry struct {
	trigger string
	reply   string
}

var defaultDialog = []dialogEntry{
	{trigger: "你是誰", reply: "我是小傲驕😤 社團的桌遊管家\n不過我可不是你的僕人喔~"},
	{trigger: "你好", reply: "嗯哼 我看到你了🙄\n有事快說 沒事就去玩桌遊~"},
	{trigger: "謝謝", reply: "哼 不用謝我 我只是順手而已😏"},
	{trigger: "晚安", reply: "晚安🌙 明天社辦見~\n記得借的桌遊要還喔"},
	{trigger: "社課", reply: "社課時間看社團公告啦📢\n我才不幫你記這種事呢~"},
}

// communityLink is one club chat group a new member should join.
type communityLink struct {
	label string
	url   string
}

var communityLinks = []communityLink{
	{label: "Discord", url: "https://discord.gg/boardgame-club"},
	{label: "Instagram", url: "https://www.instagram.com/ntust_boardgame"},
}

// communityInvite renders the community link list appended to successful
// and repeated registrations.
func communityInvite() string {
	lines := make([]string, 0, len(communityLinks))
	for _, c := range communityLinks {
		lines = append(lines, c.label+"："+c.url)
	}
	return "喔還有如果你還沒加入社群這裡有連結喔😊\n" + strings.Join(lines, "\n")
}
