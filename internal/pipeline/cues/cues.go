// Package cues recognises the linguistic signals the extractor and scorer
// rely on: interrogatives, problem reports, tutorial requests, enumerated
// steps and confirmations.
package cues

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	interrogativeWords = []string{
		"请问", "请教", "咨询", "求助", "如何", "怎么", "怎样", "为什么", "什么",
		"哪里", "哪个", "哪些", "能否", "能不能", "可不可以", "是否", "有没有",
		"多少", "多久", "几天",
	}

	problemWords = []string{
		"问题", "错误", "故障", "异常", "失败", "不能", "无法", "不行", "不会",
		"不知道", "报错", "出错", "bug", "崩溃", "闪退", "卡顿", "打不开",
		"用不了", "连不上", "没反应",
	}

	tutorialWords = []string{
		"教程", "指南", "说明", "文档", "步骤", "流程", "操作", "使用", "用法",
		"设置", "配置", "安装", "部署", "怎么用", "如何用",
	}

	sequenceMarkers = []string{"首先", "然后", "接着", "其次", "最后", "接下来"}

	confirmationWords = []string{"可以", "建议", "解决了", "已经", "没问题", "确认", "搞定"}

	// numbered list items: "1." "2、" "3)" at line start or after whitespace
	// or punctuation, "（1）", "第一步".
	numberedStep = regexp.MustCompile(`(^|[\s，,。；;：:])[1-9][0-9]?\s*[.、．)）]|[（(][1-9一二三四五六七八九][)）]|第[一二三四五六七八九十1-9]步?[，,、：:]?`)

	trailingParticle = regexp.MustCompile(`[吗呢][\s。！!~～.…]*$`)
)

// IsInterrogative reports whether text asks something.
func IsInterrogative(text string) bool {
	if strings.ContainsAny(text, "?？") {
		return true
	}
	if trailingParticle.MatchString(text) {
		return true
	}
	return containsAny(text, interrogativeWords)
}

// EndsWithQuestion reports whether text ends in a question mark.
func EndsWithQuestion(text string) bool {
	t := strings.TrimRightFunc(text, unicode.IsSpace)
	return strings.HasSuffix(t, "?") || strings.HasSuffix(t, "？")
}

// IsProblemReport reports whether text describes a malfunction.
func IsProblemReport(text string) bool {
	return containsAny(strings.ToLower(text), problemWords)
}

// IsTutorialRequest reports whether text asks for instructions.
func IsTutorialRequest(text string) bool {
	return IsInterrogative(text) && containsAny(text, tutorialWords)
}

// HasSteps reports whether text enumerates steps: a numbered list, the
// word 步骤, or at least two sequential markers.
func HasSteps(text string) bool {
	if numberedStep.MatchString(text) || strings.Contains(text, "步骤") {
		return true
	}
	n := 0
	for _, m := range sequenceMarkers {
		if strings.Contains(text, m) {
			n++
		}
	}
	return n >= 2
}

// HasConfirmation reports whether text contains explicit confirmation phrasing.
func HasConfirmation(text string) bool {
	return containsAny(text, confirmationWords)
}

// HasStructure reports whether an answer carries structural markers.
func HasStructure(text string) bool {
	return HasSteps(text) || HasConfirmation(text)
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
