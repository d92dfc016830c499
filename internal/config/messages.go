package config

import "fmt"

const (
	errUnknownOptionFmt = "unsupported %s value %q"
)

type messageBuilders struct {
	unknownOption func(key, value string) string
}

func newMessageBuilders() messageBuilders {
	return messageBuilders{
		unknownOption: func(key, value string) string {
			return fmt.Sprintf(errUnknownOptionFmt, key, value)
		},
	}
}

var messages = newMessageBuilders()
