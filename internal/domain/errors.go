package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a question ID is not part of the quiz.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrAttemptNotFound is returned when an attempt id is unknown.
	ErrAttemptNotFound = errors.New("attempt not found")

	// ErrQuizNotAvailable is returned when a quiz is inactive or outside its availability window.
	ErrQuizNotAvailable = errors.New("quiz not available")
	// ErrMaxAttemptsReached is returned when the student used up the allowed attempts.
	ErrMaxAttemptsReached = errors.New("max attempts reached")
	// ErrMalformedAnswer indicates an answer payload that does not match its question type.
	ErrMalformedAnswer = errors.New("malformed answer")
	// ErrInvalidQuestion indicates a question that violates its type's shape rules.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrInvalidQuiz indicates quiz metadata outside the allowed ranges.
	ErrInvalidQuiz = errors.New("invalid quiz")
	// ErrDuplicateOrder is returned when a question order is already taken in the quiz.
	ErrDuplicateOrder = errors.New("question order already in use")
	// ErrDuplicateID is returned when a client-supplied quiz or question id is already taken.
	ErrDuplicateID = errors.New("id already in use")
	// ErrAttemptNotExpired is returned when a timeout is requested before the deadline.
	ErrAttemptNotExpired = errors.New("attempt has not expired")
	// ErrNotGradable is returned when a manual grade targets something that cannot take one.
	ErrNotGradable = errors.New("not gradable")

	// ErrAttemptConflict is returned when an attempt is no longer in progress or was changed concurrently.
	ErrAttemptConflict = errors.New("attempt state conflict")
	// ErrAttemptNotOwned is returned when a user drives an attempt that belongs to someone else.
	ErrAttemptNotOwned = errors.New("attempt belongs to another student")
	// ErrNotAuthor is returned when someone other than the quiz author edits or grades it.
	ErrNotAuthor = errors.New("not the quiz author")
)

var preconditionErrors = []error{
	ErrQuizNotAvailable,
	ErrMaxAttemptsReached,
	ErrMalformedAnswer,
	ErrInvalidQuestion,
	ErrInvalidQuiz,
	ErrDuplicateOrder,
	ErrAttemptNotExpired,
	ErrNotGradable,
}

// IsPrecondition reports whether err is a caller-side rejection that left no state behind.
func IsPrecondition(err error) bool {
	for _, target := range preconditionErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsConflict reports whether err is a state conflict on an attempt or an id
// collision.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAttemptConflict) || errors.Is(err, ErrDuplicateID)
}

// IsNotFound reports whether err is a missing quiz, question, or attempt.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrQuizNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrAttemptNotFound)
}

// IsForbidden reports whether err rejects the caller's identity.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrAttemptNotOwned) || errors.Is(err, ErrNotAuthor)
}
