// Package topic provides hierarchical topic types and pattern matching for the bus.
//
// # Topic Format
//
// Topics use dot-notation to create hierarchical namespaces:
//
//	orders.created
//	orders.us.shipped
//	config.section.reloaded
//	metrics.cpu.sampled
//
// # Wildcards
//
// Two wildcard patterns are supported:
//
//   - "*" matches exactly one segment
//   - "#" matches zero or more segments
//
// Examples:
//
//	orders.*              matches orders.created, orders.cancelled (not orders.us.shipped)
//	orders.#              matches orders, orders.created, orders.us.shipped
//	*.changed             matches config.changed, inventory.changed
//	orders.*.shipped      matches orders.us.shipped, orders.eu.shipped
//	orders.#.shipped      matches orders.shipped, orders.us.west.shipped
//	#                     matches everything
//
// The "#" wildcard may appear anywhere in a pattern, including the middle.
// Because it matches zero segments, "a.#.c" matches both "a.c" and "a.b.c",
// and "#.*" requires at least one segment.
//
// # Pattern Matching
//
// The Trie type provides efficient pattern matching using a trie data structure.
// It supports:
//
//   - Exact topic matching
//   - Single-segment wildcards (*)
//   - Multi-segment wildcards (#)
//   - Multiple patterns matching a single topic
//
// # Usage
//
//	tr := topic.NewTrie()
//	tr.Insert(topic.Topic("orders.*"))
//	tr.Insert(topic.Topic("orders.created"))
//
//	matches := tr.Match(topic.Topic("orders.created"))
//	// matches contains both patterns
package topic
