package registry

import "time"

const defaultTimeout = 120 * time.Second

var builtin = []Descriptor{
	{
		Name:          "claude",
		DisplayName:   "Claude Code (@anthropic-ai/claude-code)",
		Aliases:       []string{"claude-code", "anthropic"},
		Candidates:    []string{"claude", "npx @anthropic-ai/claude-code"},
		Package:       &Package{Ecosystem: EcosystemNPM, Name: "@anthropic-ai/claude-code"},
		CredentialEnv: "ANTHROPIC_API_KEY",
		Timeout:       defaultTimeout,
		ArgStyle:      ArgFlag,
		PromptFlag:    "-p",
		Strengths:     []Class{ClassGeneration, ClassAnalysis, ClassDebugging, ClassDocumentation},
	},
	{
		Name:          "gemini",
		DisplayName:   "Gemini CLI (@google/gemini-cli)",
		Aliases:       []string{"google", "gemini-cli"},
		Candidates:    []string{"gemini", "npx @google/gemini-cli"},
		Package:       &Package{Ecosystem: EcosystemNPM, Name: "@google/gemini-cli"},
		CredentialEnv: "GEMINI_API_KEY",
		Timeout:       defaultTimeout,
		ArgStyle:      ArgFlag,
		PromptFlag:    "--prompt",
		Strengths:     []Class{ClassAnalysis, ClassDocumentation, ClassGeneral},
	},
	{
		Name:          "qwen",
		DisplayName:   "Qwen Code (@qwen-code/qwen-code)",
		Aliases:       []string{"qwen-code", "tongyi"},
		Candidates:    []string{"qwen", "npx @qwen-code/qwen-code"},
		Package:       &Package{Ecosystem: EcosystemNPM, Name: "@qwen-code/qwen-code"},
		CredentialEnv: "DASHSCOPE_API_KEY",
		Timeout:       defaultTimeout,
		ArgStyle:      ArgPositional,
		Strengths:     []Class{ClassGeneration, ClassOptimization},
	},
	{
		Name:          "codex",
		DisplayName:   "Codex (@openai/codex)",
		Aliases:       []string{"openai", "openai-codex"},
		Candidates:    []string{"codex", "npx @openai/codex"},
		Package:       &Package{Ecosystem: EcosystemNPM, Name: "@openai/codex"},
		CredentialEnv: "OPENAI_API_KEY",
		Timeout:       defaultTimeout,
		ArgStyle:      ArgFlag,
		PromptFlag:    "exec",
		VersionArgs:   [][]string{{"--version"}, {"-V"}},
		Strengths:     []Class{ClassGeneration, ClassDebugging, ClassTesting},
	},
	{
		Name:          "iflow",
		DisplayName:   "iFlow CLI (@iflow-ai/iflow-cli)",
		Candidates:    []string{"iflow", "npx @iflow-ai/iflow-cli"},
		Package:       &Package{Ecosystem: EcosystemNPM, Name: "@iflow-ai/iflow-cli"},
		CredentialEnv: "IFLOW_API_KEY",
		Timeout:       defaultTimeout,
		ArgStyle:      ArgFlag,
		PromptFlag:    "-p",
		Strengths:     []Class{ClassAnalysis, ClassOptimization},
	},
	{
		Name:          "codebuddy",
		DisplayName:   "CodeBuddy Code (@tencent-ai/codebuddy-code)",
		Candidates:    []string{"codebuddy", "npx @tencent-ai/codebuddy-code"},
		Package:       &Package{Ecosystem: EcosystemNPM, Name: "@tencent-ai/codebuddy-code"},
		CredentialEnv: "CODEBUDDY_API_KEY",
		Timeout:       defaultTimeout,
		ArgStyle:      ArgTrailing,
		PromptFlag:    "-p",
		WorkdirFlag:   "--cwd",
		Strengths:     []Class{ClassGeneration, ClassTesting},
	},
	{
		Name:          "copilot",
		DisplayName:   "GitHub Copilot CLI (@github/copilot)",
		Aliases:       []string{"github"},
		Candidates:    []string{"copilot", "npx @github/copilot"},
		Package:       &Package{Ecosystem: EcosystemNPM, Name: "@github/copilot"},
		CredentialEnv: "GITHUB_TOKEN",
		Timeout:       90 * time.Second,
		ArgStyle:      ArgFlag,
		PromptFlag:    "--prompt",
		Strengths:     []Class{ClassGeneration, ClassDocumentation},
	},
	{
		Name:          "qoder",
		DisplayName:   "Qoder CLI",
		Candidates:    []string{"qodercli", "qoder"},
		CredentialEnv: "QODER_PERSONAL_ACCESS_TOKEN",
		Timeout:       defaultTimeout,
		ArgStyle:      ArgFlag,
		PromptFlag:    "--request",
		Strengths:     []Class{ClassAnalysis, ClassDebugging},
		Install:       "curl -fsSL https://qoder.com/install | bash",
	},
	{
		Name:          "aider",
		DisplayName:   "Aider (aider-chat)",
		Candidates:    []string{"aider", "python3 -m aider", "python -m aider"},
		Package:       &Package{Ecosystem: EcosystemPip, Name: "aider-chat"},
		CredentialEnv: "OPENAI_API_KEY",
		Timeout:       180 * time.Second,
		ArgStyle:      ArgFlag,
		PromptFlag:    "--message",
		Strengths:     []Class{ClassDebugging, ClassOptimization, ClassTesting},
	},
}

// Builtin returns the registry holding the hand-curated tool table.
func Builtin() *Registry {
	r, err := New(builtin...)
	if err != nil {
		panic("invalid builtin tool table: " + err.Error())
	}
	return r
}
