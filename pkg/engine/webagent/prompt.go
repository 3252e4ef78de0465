package webagent

import (
	"fmt"
	"strings"

	"github.com/entrhq/serpwalk/pkg/browser"
	"github.com/entrhq/serpwalk/pkg/llm"
)

const systemPrompt = `You are a browser automation agent. You control a real web browser one action at a time to complete the user's task.

Each turn you receive the task, a log of your previous actions and the current page: its URL, title, scroll position, a numbered list of interactive elements and the visible text.

Reply with exactly ONE JSON object and nothing else. Available actions:

{"action": "navigate", "url": "https://..."}            open a URL
{"action": "click", "id": 12}                            click (or tap) element [12]
{"action": "type", "id": 3, "text": "...", "submit": true} type into element [3], submit presses Enter
{"action": "scroll", "direction": "down"}                scroll "down" or "up" by most of a screen
{"action": "wait", "seconds": 3}                         pause, as a reader would (max 10)
{"action": "go_back"}                                    browser back button
{"action": "done", "report": "..."}                      finish and report what happened

Every action may carry a short "thought" field explaining your reasoning.

Rules:
- Element ids change after every action. Only use ids from the current page.
- Elements marked (off-screen) need scrolling before a human would see them.
- Behave like a human: scroll and pause while reading instead of jumping straight to a link.
- If an action fails, the log tells you why. Try something different.
- When the task is finished, or clearly impossible, use "done". The report must say whether the target website was visited, the position it was found at and the actions you took.`

// buildMessages assembles the planner conversation for one step.
func buildMessages(task string, h *history, obs *browser.Observation, maxElements int) []*llm.Message {
	messages := []*llm.Message{llm.NewSystemMessage(systemPrompt)}

	if log := h.render(); log != "" {
		messages = append(messages, llm.NewUserMessage("PREVIOUS ACTIONS LOG (read-only context):\n"+log))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "TASK:\n%s\n\n", task)
	fmt.Fprintf(&b, "STEP %d\n\n", h.steps+1)
	b.WriteString("CURRENT PAGE:\n")
	b.WriteString(obs.Render(maxElements))
	b.WriteString("\nReply with the next action as a single JSON object.")
	messages = append(messages, llm.NewUserMessage(b.String()))

	return messages
}
