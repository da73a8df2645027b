// Package policy provides optional execution rules applied to every step of a
// run: automatic execution, approval before each step, or denial, with allow
// and block lists matched against step ids and step types.
package policy
