// Package graph builds the contributor/topic network from contribution records.
//
// # Model
//
// A [Graph] holds two kinds of nodes: people (contributors) and topics. Every
// edge links a person to a topic they contributed to. Multiple contributions
// by the same person to the same topic collapse to a single edge.
//
// Node identifiers are namespaced so that a person and a topic can never
// collide even when they share a display name:
//
//	person:Ada Lovelace
//	topic:graphs
//
// Topic identity is case-insensitive; the display name keeps the first
// spelling seen in the dataset.
//
// # Building
//
//	ds, _ := contrib.ReadFile("contributions.json")
//	g, err := graph.Build(ds.Records, graph.BuildOptions{})
//
// The first occurrence of a person fixes their affiliation, contact, source,
// categories and format. Their topic set is the union over all records.
//
// # Lookup Tables
//
// [Graph.People] maps a person id to a [PersonInfo]; [Graph.Topics] maps a
// topic id to a [TopicInfo] listing contributors with their contact.
// Collective contributions (two or more people on one record) are kept as
// [Group] values for hull overlays; they are not part of the force graph.
//
// # Serialization
//
// Graphs use a node-link JSON format:
//
//	{
//	  "nodes": [{"id": "person:Ada", "kind": "person", "name": "Ada"}],
//	  "edges": [{"source": "person:Ada", "target": "topic:graphs"}]
//	}
//
// # Concurrency
//
// A built Graph is never mutated and is safe for concurrent reads.
package graph
