package config

// SampleConfig returns a complete example configuration with comments,
// suitable for writing out via "logsleuth config init".
func SampleConfig() string {
	return `# LogSleuth configuration file
# Search order: ./.logsleuth.yaml, ~/.config/logsleuth/config.yaml,
# /etc/logsleuth/config.yaml. Environment variables with the LOGSLEUTH_
# prefix override file settings (e.g. LOGSLEUTH_AI_API_KEY).

version: "1.0"

# LLM provider used by --explain and the fix command.
ai:
  provider: "openai"        # ollama | openai
  model: "gpt-4o"           # provider-specific model name
  endpoint: ""              # empty uses the provider default
  api_key: ""               # prefer LOGSLEUTH_AI_API_KEY over storing it here
  timeout: 60s
  max_retries: 3

# Explanation and fix generation.
advisor:
  max_concurrent: 3         # parallel provider calls when explaining patterns
  context_lines: 5          # code lines shown on each side of the error line
  max_tokens: 1024          # completion response cap
  temperature: 0
  explain_top: 3            # leading patterns sent to the LLM

# Loki log source for the loki command.
loki:
  url: "http://localhost:3100"
  username: ""
  password: ""
  query: '{job="application"}'
  limit: 1000
  timeout: 30s
  insecure_skip_verify: false

# Directory scanning for the scan command.
scan:
  extensions: [".log", ".txt"]
  max_depth: 4
  workers: 4

# Source code lookup for code context around errors.
source:
  root: "."                 # search root for files named in tracebacks
  watch: false              # drop cached file contents on outside writes

# Output formatting.
output:
  default_format: "text"    # text | json | markdown | csv
  color_mode: "auto"        # auto | always | never
  verbose: false

# Pipeline behavior.
analysis:
  timeout: 60s
  max_lines: 100000
  level_stats: true         # count input lines per log level
  type_prefix: false        # keep the "Type: " prefix on extracted messages
`
}

// MinimalSampleConfig returns a compact configuration with only the settings
// most installations change.
func MinimalSampleConfig() string {
	return `# LogSleuth configuration (minimal)
version: "1.0"

ai:
  provider: "openai"
  model: "gpt-4o"

loki:
  url: "http://localhost:3100"

output:
  default_format: "text"
`
}
