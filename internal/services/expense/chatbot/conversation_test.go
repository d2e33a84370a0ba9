package chatbot

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestConversationKeepsOrder(t *testing.T) {
	t.Parallel()

	conversation := NewConversation(0)
	conversation.Append(Message{Role: RoleUser, Text: "hi"}, Message{Role: RoleAssistant, Text: "hello"})

	want := []Message{{Role: RoleUser, Text: "hi"}, {Role: RoleAssistant, Text: "hello"}}
	if diff := cmp.Diff(want, conversation.Messages()); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestConversationDropsOldest(t *testing.T) {
	t.Parallel()

	conversation := NewConversation(3)
	for i := 0; i < 5; i++ {
		conversation.Append(Message{Role: RoleUser, Text: fmt.Sprint(i)})
	}
	got := conversation.Messages()
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Text != "2" || got[2].Text != "4" {
		t.Fatalf("messages = %+v, want 2..4", got)
	}
}

func TestConversationMessagesIsCopy(t *testing.T) {
	t.Parallel()

	conversation := NewConversation(2)
	conversation.Append(Message{Role: RoleUser, Text: "a"})
	messages := conversation.Messages()
	messages[0].Text = "changed"
	if got := conversation.Messages()[0].Text; got != "a" {
		t.Fatalf("stored text = %q, want a", got)
	}
}

func TestConversationConcurrentAppend(t *testing.T) {
	t.Parallel()

	conversation := NewConversation(MaxConversationMessages)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conversation.Append(Message{Role: RoleUser, Text: "x"})
		}()
	}
	wg.Wait()
	if got := conversation.Len(); got != MaxConversationMessages {
		t.Fatalf("len = %d, want %d", got, MaxConversationMessages)
	}
}
