package testutil

import "time"

// Node is a linked structure used to build shared and cyclic values.
type Node struct {
	Name     string
	Next     *Node
	Children []*Node
	Tags     map[string]string
}

// NewCycle returns a two-node ring: a.Next is b and b.Next is a.
func NewCycle() *Node {
	a := &Node{Name: "a"}
	b := &Node{Name: "b", Next: a}
	a.Next = b
	return a
}

// NewSelfMap returns a map that contains itself under the key "self".
func NewSelfMap() map[string]any {
	m := map[string]any{"name": "root"}
	m["self"] = m
	return m
}

// NewDiamond returns a node whose two children share the same grandchild.
// It has no cycle.
func NewDiamond() *Node {
	shared := &Node{Name: "shared", Tags: map[string]string{"kind": "leaf"}}
	return &Node{
		Name: "root",
		Children: []*Node{
			{Name: "left", Next: shared},
			{Name: "right", Next: shared},
		},
	}
}

// Profile is a plain nested record for round-trip tests.
type Profile struct {
	Name    string            `json:"name"`
	Age     int               `json:"age"`
	Emails  []string          `json:"emails"`
	Labels  map[string]string `json:"labels"`
	Address *Address          `json:"address,omitempty"`
}

// Address is nested inside Profile.
type Address struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

// NewProfile returns a fully populated Profile.
func NewProfile() Profile {
	return Profile{
		Name:   "Ada",
		Age:    36,
		Emails: []string{"ada@example.com", "ada@work.example"},
		Labels: map[string]string{"team": "engines"},
		Address: &Address{
			City:    "London",
			Country: "UK",
		},
	}
}

// Clock is a manually advanced time source.
type Clock struct {
	now time.Time
}

// NewClock returns a clock starting at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
