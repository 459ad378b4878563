package dispatch

import (
	"regexp"
	"strings"

	"clirouter/internal/registry"
)

// Intent is a best-effort reading of a natural-language routing request.
type Intent struct {
	Tool string `json:"tool"`
	Task string `json:"task"`
}

var (
	intentEN = regexp.MustCompile(`(?is)^\s*(?:please\s+)?(?:let|use|ask|have|get)\s+([A-Za-z][\w.-]*)\s+(?:to\s+)?(?:(?:help|helps)\s+(?:me\s+)?(?:to\s+)?|and\s+|for\s+)?(.+?)\s*$`)
	intentZH = regexp.MustCompile(`(?s)^\s*(?:请)?(?:用|让|使用|调用)\s*([A-Za-z][\w.-]*)\s*(?:帮我|帮忙|来|去|给我)?\s*(.+?)\s*$`)
	wordRe   = regexp.MustCompile(`[A-Za-z][\w-]*`)
)

// ParseIntent extracts the target tool and task from phrases such as
// "let gemini translate this" or "用claude帮我写测试". The tool must be known
// to reg. When no phrase matches, the first registry name mentioned anywhere
// is taken and the whole text becomes the task. Overlapping mentions are not
// disambiguated.
func ParseIntent(reg *registry.Registry, text string) (Intent, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Intent{}, false
	}
	for _, re := range []*regexp.Regexp{intentEN, intentZH} {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		d, err := reg.Describe(m[1])
		if err != nil {
			continue
		}
		task := strings.TrimSpace(m[2])
		if task == "" {
			continue
		}
		return Intent{Tool: d.Name, Task: task}, true
	}
	for _, w := range wordRe.FindAllString(text, -1) {
		if d, err := reg.Describe(w); err == nil {
			return Intent{Tool: d.Name, Task: text}, true
		}
	}
	return Intent{}, false
}
