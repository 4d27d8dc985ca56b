package highlight

import "regexp"

// PlainText is the language reported when detection finds nothing.
const PlainText = "text"

type languageRule struct {
	name    string
	pattern *regexp.Regexp
}

// Checked in order; the first match wins, so broad patterns sit late.
var languageRules = []languageRule{
	{"javascript", regexp.MustCompile(`function|const|let|var|=>|console\.log|require|import|export`)},
	{"python", regexp.MustCompile(`def |import |from |print\(|if __name__|class |self\.`)},
	{"java", regexp.MustCompile(`public class|private |public static|System\.out`)},
	{"cpp", regexp.MustCompile(`#include|std::|cout|cin|int main`)},
	{"csharp", regexp.MustCompile(`using System|public class|private |Console\.WriteLine`)},
	{"html", regexp.MustCompile(`<html|<div|<span|<p>|<!DOCTYPE`)},
	{"css", regexp.MustCompile(`\{[\s\S]*\}|@media|@import|\.[\w-]+\s*\{`)},
	{"sql", regexp.MustCompile(`(?i)SELECT|INSERT|UPDATE|DELETE|CREATE|ALTER|DROP`)},
	{"json", regexp.MustCompile(`^\s*[\{\[]`)},
	{"xml", regexp.MustCompile(`^\s*<\?xml|<[a-zA-Z]`)},
	{"bash", regexp.MustCompile(`#!/bin/bash|sudo |apt-get|npm |yarn |git `)},
	{"php", regexp.MustCompile(`<\?php|\$[a-zA-Z_]`)},
	{"ruby", regexp.MustCompile(`def |class |require |puts |end$`)},
	{"go", regexp.MustCompile(`package |func |import |fmt\.`)},
	{"rust", regexp.MustCompile(`fn |let |pub |use |match |impl`)},
	{"swift", regexp.MustCompile(`func |var |let |import |class |struct`)},
	{"kotlin", regexp.MustCompile(`fun |val |var |class |package |import`)},
	{"typescript", regexp.MustCompile(`interface |type |enum |namespace |declare`)},
}

// DetectLanguage guesses a fence language from keywords. It is cheap and
// works before the highlighter has loaded.
func DetectLanguage(code string) string {
	for _, r := range languageRules {
		if r.pattern.MatchString(code) {
			return r.name
		}
	}
	return PlainText
}
