package utils

import (
	"github.com/fatih/color"
)

var funColor = func(is ...interface{}) string {
	return CanColorize(color.New(color.FgHiYellow).SprintFunc())(is...)
}
var nameColor = func(is ...interface{}) string {
	return CanColorize(color.New(color.FgHiGreen).SprintFunc())(is...)
}

func FunString(name string) string { return funColor(name) }

func NameString(name string) string { return nameColor(name) }
