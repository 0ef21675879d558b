package policy

import (
	"fmt"
	"reflect"

	"github.com/orgguard/orgguard/pkg/domain"
)

// EventHandlerFactory is the dispatch table for policy event handlers. It is
// populated once at startup and treated as append-only thereafter, so
// lookups need no locking.
type EventHandlerFactory struct {
	handlers []EventHandler
}

// NewEventHandlerFactory registers the handler set and rejects duplicate
// registrations for the same (policy type, extension interface) pair. A
// duplicate is a startup configuration bug, not a runtime condition.
func NewEventHandlerFactory(handlers ...EventHandler) (*EventHandlerFactory, error) {
	factory := &EventHandlerFactory{handlers: handlers}

	for _, policyType := range domain.AllPolicyTypes() {
		if _, _, err := GetHandler[EnforceDependentPoliciesEvent](factory, policyType); err != nil {
			return nil, err
		}
		if _, _, err := GetHandler[ValidationEvent](factory, policyType); err != nil {
			return nil, err
		}
		if _, _, err := GetHandler[PreUpdateEvent](factory, policyType); err != nil {
			return nil, err
		}
		if _, _, err := GetHandler[PostUpdateEvent](factory, policyType); err != nil {
			return nil, err
		}
	}
	return factory, nil
}

// GetHandler resolves the one handler implementing T for the given policy
// type. Zero matches returns ok=false (no constraint); two or more matches
// is a configuration error.
func GetHandler[T EventHandler](f *EventHandlerFactory, policyType domain.PolicyType) (T, bool, error) {
	var match T
	found := false
	for _, candidate := range f.handlers {
		typed, ok := candidate.(T)
		if !ok || typed.PolicyType() != policyType {
			continue
		}
		if found {
			var zero T
			return zero, false, fmt.Errorf("duplicate %s handler registered for the %s policy", handlerName[T](), policyType.Name())
		}
		match = typed
		found = true
	}
	if !found {
		var zero T
		return zero, false, nil
	}
	return match, true, nil
}

// handlerName names the extension interface T for configuration error
// messages. Reflection is confined to this error path; dispatch itself is
// plain type assertion.
func handlerName[T EventHandler]() string {
	return reflect.TypeOf((*T)(nil)).Elem().Name()
}
