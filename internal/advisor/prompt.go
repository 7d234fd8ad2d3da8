package advisor

// Task selects which instruction template accompanies the Dockerfile.
type Task string

const (
	TaskExplain Task = "explain"
	TaskRewrite Task = "rewrite"
)

const explainInstruction = `You are a container security expert.

Analyze the following Dockerfile and provide:
1. An overall risk percentage from 0 to 100
2. A list of the security risks present
3. An explanation of each risk
4. How to fix each risk
5. Best practices this Dockerfile should follow`

const rewriteInstruction = `You are a container security expert.

Rewrite the following Dockerfile into a hardened, production-ready version:
pin the base image, run as a non-root user, add a HEALTHCHECK, prefer COPY
over ADD, avoid piping remote scripts into a shell, clean package caches,
keep secrets out of ENV and define CMD or ENTRYPOINT.
Return only the complete Dockerfile.`

func (t Task) instruction() string {
	if t == TaskRewrite {
		return rewriteInstruction
	}
	return explainInstruction
}

// Request is what a Client receives: a fixed instruction and the full
// Dockerfile text. Clients truncate Dockerfile to fit their own limits.
type Request struct {
	Task        Task
	Instruction string
	Dockerfile  string
}

func newRequest(task Task, dockerfile string) Request {
	return Request{Task: task, Instruction: task.instruction(), Dockerfile: dockerfile}
}

// truncate caps s at max bytes without splitting a UTF-8 sequence.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
