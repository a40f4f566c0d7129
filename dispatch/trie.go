package dispatch

import (
	"sort"
	"strings"

	"github.com/aarondl/uqserv/irc"
)

// trie is a prefix tree keyed by event then target, not goroutine safe. An
// empty key matches everything at that level.
type trie struct {
	counter uint64
	root    *trieNode
}

type trieNode struct {
	subtrees map[string]*trieNode
	handlers []registered
}

type registered struct {
	id      uint64
	handler Handler
}

func newTrie() *trie {
	return &trie{root: newTrieNode()}
}

func newTrieNode() *trieNode {
	return &trieNode{
		subtrees: make(map[string]*trieNode),
	}
}

func (t *trie) register(event, target string, handler Handler) uint64 {
	toInsert := []string{
		strings.ToLower(event),
		irc.Fold(target),
	}
	return t.insert(t.root, toInsert, handler)
}

func (t *trie) insert(node *trieNode, toInsert []string, handler Handler) uint64 {
	insert := toInsert[0]

	nextNode, ok := node.subtrees[insert]
	if !ok {
		nextNode = newTrieNode()
		node.subtrees[insert] = nextNode
	}

	if len(toInsert) == 1 {
		t.counter++
		nextNode.handlers = append(nextNode.handlers, registered{id: t.counter, handler: handler})
		return t.counter
	}

	return t.insert(nextNode, toInsert[1:], handler)
}

// handlers finds every handler for the event and target in the order they
// were registered.
func (t *trie) handlers(event, target string) []Handler {
	toFind := []string{
		strings.ToLower(event),
		irc.Fold(target),
	}

	var list []registered
	t.find(t.root, toFind, &list)
	sort.Slice(list, func(i, j int) bool { return list[i].id < list[j].id })

	handlers := make([]Handler, len(list))
	for i, r := range list {
		handlers[i] = r.handler
	}
	return handlers
}

func (t *trie) find(node *trieNode, toFind []string, list *[]registered) {
	if len(toFind) == 0 {
		*list = append(*list, node.handlers...)
		return
	}

	find := toFind[0]

	if nextNode, ok := node.subtrees[""]; ok {
		t.find(nextNode, toFind[1:], list)
	}

	// With no target we don't want to look ourselves up twice.
	if len(find) == 0 {
		return
	}
	if nextNode, ok := node.subtrees[find]; ok {
		t.find(nextNode, toFind[1:], list)
	}
}

func (t *trie) unregister(id uint64) bool {
	found, _ := t.unregisterHelper(t.root, id)
	return found
}

func (t *trie) unregisterHelper(node *trieNode, toFind uint64) (found, empty bool) {
	for i, r := range node.handlers {
		if r.id == toFind {
			node.handlers = append(node.handlers[:i], node.handlers[i+1:]...)
			return true, len(node.handlers) == 0 && len(node.subtrees) == 0
		}
	}

	for k, n := range node.subtrees {
		f, e := t.unregisterHelper(n, toFind)
		if f {
			if e {
				delete(node.subtrees, k)
			}
			return true, len(node.subtrees) == 0 && len(node.handlers) == 0
		}
	}

	return false, false
}
