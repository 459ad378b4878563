package dispatch

import (
	"strings"

	"clirouter/internal/registry"
)

// keywords per class, checked in registry.Classes order. Chinese entries are
// matched as substrings since the text is not space separated.
var keywords = map[registry.Class][]string{
	registry.ClassGeneration: {
		"write", "create", "generate", "implement", "build", "scaffold", "add a", "new function",
		"编写", "创建", "生成", "实现", "写一个",
	},
	registry.ClassAnalysis: {
		"analyze", "analyse", "explain", "review", "understand", "summarize", "summarise", "compare",
		"分析", "解释", "审查", "总结", "理解",
	},
	registry.ClassDebugging: {
		"debug", "fix", "bug", "error", "crash", "broken", "panic", "stack trace", "exception",
		"调试", "修复", "错误", "崩溃", "异常",
	},
	registry.ClassTesting: {
		"test", "unit test", "coverage", "assert", "spec", "mock",
		"测试", "单元测试", "覆盖率",
	},
	registry.ClassDocumentation: {
		"document", "docs", "readme", "comment", "translate", "docstring", "changelog",
		"文档", "注释", "翻译", "说明",
	},
	registry.ClassOptimization: {
		"optimize", "optimise", "performance", "faster", "speed up", "refactor", "memory", "latency",
		"优化", "性能", "重构", "加速",
	},
}

// Classify assigns text the class with the most keyword hits. Ties go to the
// class listed first in registry.Classes; no hits means general.
func Classify(text string) registry.Class {
	t := strings.ToLower(text)
	best, bestScore := registry.ClassGeneral, 0
	for _, c := range registry.Classes {
		score := 0
		for _, kw := range keywords[c] {
			if containsWord(t, kw) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	return best
}

// containsWord matches ASCII keywords on a word prefix boundary ("test"
// matches "tests" but not "latest") and everything else as a substring.
func containsWord(text, kw string) bool {
	if !isASCII(kw) {
		return strings.Contains(text, kw)
	}
	for i := 0; ; {
		j := strings.Index(text[i:], kw)
		if j < 0 {
			return false
		}
		j += i
		if j == 0 || !isWordByte(text[j-1]) {
			return true
		}
		i = j + 1
	}
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

// hint returns the advice shown at the error fallback level for class c.
// Every class has a case; the default branch only serves general.
func hint(c registry.Class) func(tool string) string {
	switch c {
	case registry.ClassGeneration:
		return generationHint
	case registry.ClassAnalysis:
		return analysisHint
	case registry.ClassDebugging:
		return debuggingHint
	case registry.ClassTesting:
		return testingHint
	case registry.ClassDocumentation:
		return documentationHint
	case registry.ClassOptimization:
		return optimizationHint
	default:
		return generalHint
	}
}

func generationHint(tool string) string {
	return "Code generation works best with a concrete signature or file to extend; pass it with --file so " + tool + " or an alternative sees it."
}

func analysisHint(tool string) string {
	return "For analysis, attach the files to inspect with --file and set --cwd to the project root."
}

func debuggingHint(tool string) string {
	return "Include the exact error output and the failing command in the request when retrying with " + tool + " or an alternative."
}

func testingHint(tool string) string {
	return "Name the test framework and the file under test; most tools need --cwd to run the suite."
}

func documentationHint(tool string) string {
	return "Documentation requests do not need execution rights; any available tool can answer them."
}

func optimizationHint(tool string) string {
	return "Share a benchmark or profile with the request so the suggested change can be verified."
}

func generalHint(tool string) string {
	return "Retry once " + tool + " is installed, or route the request to one of the alternatives below."
}
