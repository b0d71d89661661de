package search

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hyperjump/florafind/internal/models"
)

func TestConversationLog_TrimsOnOverflow(t *testing.T) {
	log := NewConversationLog(0, 0)
	for i := 0; i <= 50; i++ {
		log.Append(models.ConversationEntry{Query: fmt.Sprintf("q%d", i)})
	}

	entries := log.Entries()
	assert.Len(t, entries, 25)
	assert.Equal(t, "q26", entries[0].Query)
	assert.Equal(t, "q50", entries[24].Query)
}

func TestConversationLog_AtCapacityKeepsAll(t *testing.T) {
	log := NewConversationLog(50, 25)
	for i := 0; i < 50; i++ {
		log.Append(models.ConversationEntry{Query: fmt.Sprintf("q%d", i)})
	}
	assert.Equal(t, 50, log.Len())
}

func TestConversationLog_EntriesIsCopy(t *testing.T) {
	log := NewConversationLog(5, 2)
	log.Append(models.ConversationEntry{Query: "neem"})

	entries := log.Entries()
	entries[0].Query = "changed"
	assert.Equal(t, "neem", log.Entries()[0].Query)

	log.Clear()
	assert.Zero(t, log.Len())
}

func TestConversationLog_Concurrent(t *testing.T) {
	log := NewConversationLog(50, 25)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				log.Append(models.ConversationEntry{Query: "q"})
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, log.Len(), 50)
	assert.GreaterOrEqual(t, log.Len(), 25)
}
