// Package parser provides utilities for parsing structured content from LLM replies.
package parser

import (
	"strings"
)

var thinkingTags = map[string]bool{
	"<thinking>":  true,
	"</thinking>": false,
	"<think>":     true,
	"</think>":    false,
}

// ThinkingParser separates <thinking>/<think> blocks from regular content.
// It keeps state across calls so a tag split between two pieces of content
// is still recognised.
type ThinkingParser struct {
	thinking   strings.Builder
	message    strings.Builder
	tagBuffer  strings.Builder // potential tag content between < and >
	inThinking bool
	inTag      bool // saw '<' but not yet '>'
}

// NewThinkingParser creates a new thinking parser.
func NewThinkingParser() *ThinkingParser {
	return &ThinkingParser{}
}

// Write feeds a piece of content to the parser.
func (p *ThinkingParser) Write(content string) {
	for _, ch := range content {
		switch {
		case ch == '<':
			if p.inTag {
				// the previous '<' did not open a tag
				p.emit(p.tagBuffer.String())
			}
			p.inTag = true
			p.tagBuffer.Reset()
			p.tagBuffer.WriteRune(ch)

		case ch == '>' && p.inTag:
			p.tagBuffer.WriteRune(ch)
			tag := p.tagBuffer.String()
			p.tagBuffer.Reset()
			p.inTag = false

			if opens, ok := thinkingTags[strings.ToLower(tag)]; ok {
				p.inThinking = opens
				continue
			}
			p.emit(tag)

		case p.inTag:
			p.tagBuffer.WriteRune(ch)

		default:
			p.emitRune(ch)
		}
	}
}

func (p *ThinkingParser) emit(text string) {
	if p.inThinking {
		p.thinking.WriteString(text)
		return
	}
	p.message.WriteString(text)
}

func (p *ThinkingParser) emitRune(ch rune) {
	if p.inThinking {
		p.thinking.WriteRune(ch)
		return
	}
	p.message.WriteRune(ch)
}

// IsInThinking returns true if currently parsing thinking content.
func (p *ThinkingParser) IsInThinking() bool {
	return p.inThinking
}

// Flush returns everything parsed so far, including an unterminated tag,
// and resets the parser.
func (p *ThinkingParser) Flush() (thinking, message string) {
	if p.inTag && p.tagBuffer.Len() > 0 {
		p.emit(p.tagBuffer.String())
	}
	thinking = strings.TrimSpace(p.thinking.String())
	message = strings.TrimSpace(p.message.String())
	p.Reset()
	return thinking, message
}

// Reset resets the parser state.
func (p *ThinkingParser) Reset() {
	p.thinking.Reset()
	p.message.Reset()
	p.tagBuffer.Reset()
	p.inThinking = false
	p.inTag = false
}

// SplitThinking separates thinking blocks from the rest of content.
func SplitThinking(content string) (thinking, message string) {
	p := NewThinkingParser()
	p.Write(content)
	return p.Flush()
}
