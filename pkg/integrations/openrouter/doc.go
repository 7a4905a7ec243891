// Package openrouter provides a client for the OpenRouter chat completion
// API, which Concept nodes use to expand freeform text into a scene.
//
// The model is chosen per request ("openai/gpt-4o-mini", "anthropic/...",
// and so on), so one key reaches every vendor OpenRouter supports.
package openrouter
