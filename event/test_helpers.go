package event

import "github.com/stretchr/testify/mock"

// MatchEvent creates a custom matcher for event arguments in mocks
func MatchEvent(matcher func(Event) bool) interface{} {
	return mock.MatchedBy(matcher)
}
