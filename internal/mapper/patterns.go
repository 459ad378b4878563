package mapper

var promptRule = Rule{Source: "prompt", Kind: KindTransform, Transform: "truncate_4k", Required: true}

var builtinPatterns = []Pattern{
	{
		Source:      "claude",
		Target:      "gemini",
		Description: "Forward a claude request to gemini with context folded into the prompt",
		Template:    "{bin} --prompt {prompt}",
		Rules: []Rule{
			{Source: "prompt", Kind: KindCustom, Transform: "claude_to_gemini_prompt", Required: true},
			{Source: "context", Kind: KindIgnore},
			{Source: "files", Kind: KindIgnore},
		},
	},
	{
		Source:      "gemini",
		Target:      "claude",
		Description: "Ask claude to continue work started in gemini",
		Template:    "{bin} -p {prompt} --append-system-prompt {summary}",
		Rules: []Rule{
			promptRule,
			{Source: "context", Target: "summary", Kind: KindCustom, Transform: "context_summary"},
		},
	},
	{
		Source:      "claude",
		Target:      "codex",
		Description: "Hand an implementation task to codex exec",
		Template:    "{bin} exec {prompt}",
		Rules:       []Rule{{Source: "prompt", Kind: KindTransform, Transform: "trim", Required: true}},
	},
	{
		Source:      "codex",
		Target:      "claude",
		Description: "Ask claude to review codex output",
		Template:    "{bin} -p {prompt}",
		Rules:       []Rule{promptRule},
	},
	{
		Source:      "qwen",
		Target:      "gemini",
		Description: "Forward a qwen request to gemini, optionally pinning a model",
		Template:    "{bin} --prompt {prompt} --model {model}",
		Rules: []Rule{
			promptRule,
			{Source: "model", Kind: KindDirect},
		},
	},
	{
		Source:      "claude",
		Target:      "qwen",
		Description: "Forward a claude request to qwen as a single-line prompt",
		Template:    "{bin} {prompt}",
		Rules:       []Rule{{Source: "prompt", Kind: KindTransform, Transform: "single_line", Required: true}},
	},
	{
		Source:      "gemini",
		Target:      "aider",
		Description: "Let aider apply a change proposed in gemini",
		Template:    "{bin} --message {prompt} --yes-always",
		Rules:       []Rule{promptRule},
	},
}
