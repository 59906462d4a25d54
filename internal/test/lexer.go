package test

import (
	"math/rand"
	"strings"
)

const validTokens = "func;main;if;while;return;display;true;false;(;);{;};Num;Char;Bool;xyz;counter;'a';'話';+;-;*;/;:=;=;==;>;<;!;->;123;321;1.5;0.25;//comment\n;\n"

// GetRandomTokens builds a source string of size valid till tokens separated
// by spaces, for lexer benchmarks.
func GetRandomTokens(size int) string {
	return GetRandomTokensWithSep(size, " ")
}

func GetRandomTokensWithSep(size int, sep string) string {
	valid := strings.Split(validTokens, ";")

	var toks []string
	for len(toks) < size {
		toks = append(toks, valid[rand.Intn(len(valid))])
	}

	return strings.Join(toks, sep)
}
