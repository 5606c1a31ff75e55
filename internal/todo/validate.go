package todo

import "unicode/utf8"

// ValidateListName checks the length bounds first, then uniqueness among lists.
func ValidateListName(name string, lists []List) error {
	if !validLength(name) {
		return &ValidationError{
			Kind:    InvalidLength,
			Message: "List name must be between 1 and 100 characters.",
		}
	}
	for _, list := range lists {
		if list.Name == name {
			return &ValidationError{
				Kind:    DuplicateName,
				Message: "List name must be unique.",
			}
		}
	}
	return nil
}

func ValidateTodoName(name string) error {
	if !validLength(name) {
		return &ValidationError{
			Kind:    InvalidLength,
			Message: "Todo name must be between 1 and 100 characters.",
		}
	}
	return nil
}

func validLength(name string) bool {
	n := utf8.RuneCountInString(name)
	return n >= MinNameLength && n <= MaxNameLength
}
