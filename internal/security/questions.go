package security

// SecurityQuestions is the fixed allow-list of password-reset questions.
// Registration rejects any question outside this list; answers are hashed
// with the same argon2id scheme as passwords.
var SecurityQuestions = []string{
	"What is your mother's maiden name?",
	"What was the name of your first pet?",
	"What was the name of your elementary school?",
	"In what city were you born?",
	"What is your favorite movie?",
	"What was the make and model of your first car?",
	"What is the name of your favorite teacher?",
	"What was your childhood nickname?",
	"What is the name of the street you grew up on?",
	"What is your favorite book?",
}

// ValidSecurityQuestion reports whether question is on the allow-list.
func ValidSecurityQuestion(question string) bool {
	for _, q := range SecurityQuestions {
		if q == question {
			return true
		}
	}
	return false
}
