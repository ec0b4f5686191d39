package confluence

import "regexp"

// Storage-format macro patterns. Code bodies live inside CDATA sections,
// which an HTML parser treats as comments and drops, so they must be
// rewritten into plain pre/code blocks before the page is emitted. Info
// and warning panels become labelled blockquotes, matching how exported
// pages render them.
var (
	codeMacroRE = regexp.MustCompile(`(?s)<ac:structured-macro ac:name="code"[^>]*>(.*?)</ac:structured-macro>`)
	plainTextRE = regexp.MustCompile(`(?s)<ac:plain-text-body><!\[CDATA\[(.*?)\]\]></ac:plain-text-body>`)

	infoMacroRE    = regexp.MustCompile(`(?s)<ac:structured-macro ac:name="info"[^>]*>(.*?)</ac:structured-macro>`)
	warningMacroRE = regexp.MustCompile(`(?s)<ac:structured-macro ac:name="warning"[^>]*>(.*?)</ac:structured-macro>`)
	richTextRE     = regexp.MustCompile(`(?s)<ac:rich-text-body>(.*?)</ac:rich-text-body>`)
)

// processMacros rewrites Confluence storage-format macros into the plain
// HTML equivalents the normaliser understands. Unknown macros are left
// untouched.
func processMacros(html string) string {
	html = codeMacroRE.ReplaceAllStringFunc(html, func(macro string) string {
		inner := codeMacroRE.FindStringSubmatch(macro)
		if code := plainTextRE.FindStringSubmatch(inner[1]); code != nil {
			return "<pre><code>" + code[1] + "</code></pre>"
		}
		return macro
	})

	html = infoMacroRE.ReplaceAllStringFunc(html, func(macro string) string {
		inner := infoMacroRE.FindStringSubmatch(macro)
		if content := richTextRE.FindStringSubmatch(inner[1]); content != nil {
			return "<blockquote><strong>ℹ️ 信息</strong><br/>" + content[1] + "</blockquote>"
		}
		return macro
	})

	html = warningMacroRE.ReplaceAllStringFunc(html, func(macro string) string {
		inner := warningMacroRE.FindStringSubmatch(macro)
		if content := richTextRE.FindStringSubmatch(inner[1]); content != nil {
			return "<blockquote><strong>⚠️ 警告</strong><br/>" + content[1] + "</blockquote>"
		}
		return macro
	})

	return html
}
