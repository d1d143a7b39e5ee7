package prompt

import "fmt"

// AssistantInstruction frames free-form health questions.
func AssistantInstruction() string {
	return `You are a friendly health assistant inside a personal wellness dashboard. Answer clearly and briefly in plain language.
You are not a doctor: for anything urgent or serious, tell the user to contact a medical professional.`
}

// Question wraps the user's question.
func Question(q string) string {
	return fmt.Sprintf("Question: %s", q)
}
