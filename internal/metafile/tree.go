// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metafile

import (
	"fmt"
	"sort"
	"strings"
)

type treeNode struct {
	name     string
	size     int64
	isFile   bool
	children map[string]*treeNode
	order    []string
}

func newTreeNode(name string) *treeNode {
	return &treeNode{name: name, children: make(map[string]*treeNode)}
}

func (n *treeNode) child(name string) *treeNode {
	if c, ok := n.children[name]; ok {
		return c
	}
	c := newTreeNode(name)
	n.children[name] = c
	n.order = append(n.order, name)
	return c
}

// tree builds a directory tree from the metafile's file list.
func (m *Metafile) tree() *treeNode {
	root := newTreeNode(m.Name)
	for _, f := range m.SortedFiles() {
		cur := root
		for i, seg := range f.PathSegments {
			cur = cur.child(seg)
			if i == len(f.PathSegments)-1 {
				cur.isFile = true
				cur.size = f.Length
			}
		}
	}
	return root
}

// Tree renders a deterministic depth-first human-readable listing of the
// metafile's contents, one entry per line: the torrent name first, then
// each file as "name (size)" and each directory as "name/", indented under
// its parent with tree connectors.
func (m *Metafile) Tree() string {
	var b strings.Builder
	root := m.tree()
	fmt.Fprintf(&b, "%s\n", root.name)
	writeTree(&b, root, "")
	return b.String()
}

func writeTree(b *strings.Builder, n *treeNode, prefix string) {
	names := append([]string(nil), n.order...)
	sort.Strings(names)
	for i, name := range names {
		c := n.children[name]
		last := i == len(names)-1
		connector := "├── "
		nextPrefix := prefix + "│   "
		if last {
			connector = "└── "
			nextPrefix = prefix + "    "
		}
		if c.isFile {
			fmt.Fprintf(b, "%s%s%s (%d)\n", prefix, connector, c.name, c.size)
		} else {
			fmt.Fprintf(b, "%s%s%s/\n", prefix, connector, c.name)
		}
		writeTree(b, c, nextPrefix)
	}
}
