package assist

import (
	"fmt"
	"strings"
)

// chatSystemPrompt steers the community chatbot. The agent may look up recent
// reports through its tool when a question touches on current issues.
const chatSystemPrompt = `You are a helpful assistant for CivicPulse, a civic issue reporting app.
Answer user questions about the app, civic issues, and the community.
When a question concerns recently reported issues, use the ListRecentReports tool to ground your answer.
Always respond in the same language as the user's message.
Keep answers short and practical.`

// buildInspirationPrompt asks for an environmental quote themed on the
// community's recent reports without quoting them back.
func buildInspirationPrompt(descriptions []string) (system, user string) {
	system = `You are an environmental advocate and motivational speaker.
Based on a list of recently reported civic issues, generate a short, powerful, and inspiring environmental quote (1-2 sentences).
The quote should motivate citizens to take action and improve their community's environment.
Do not refer to the issues directly; use them for thematic inspiration.
Respond with the quote only, no quotation marks and no attribution.`

	var b strings.Builder
	b.WriteString("Reported Issues:\n")
	for _, d := range descriptions {
		b.WriteString("- ")
		b.WriteString(d)
		b.WriteString("\n")
	}
	return system, b.String()
}

// buildStatusUpdatePrompt asks whether an inbound email changes a report's
// status. The model must answer with exactly one of the known statuses.
func buildStatusUpdatePrompt(description, currentStatus, history, subject, body string) (system, user string) {
	system = `You are an AI assistant that determines if the status of a reported civic issue should be updated based on an email received by the system.
If the email indicates a change in status, output the new status. If it does not, output the current status.
Possible statuses are: Submitted, In Progress, Resolved.
Respond with exactly one of those statuses and nothing else.`

	user = fmt.Sprintf(`Here is the current issue information:
Description: %s
Current Status: %s
Update History: %s

Here is the email received:
Subject: %s
Body: %s`, description, currentStatus, history, subject, body)
	return system, user
}
