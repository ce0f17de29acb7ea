package pathway_test

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/aretw0/pathway"
	"github.com/aretw0/pathway/pkg/domain"
	"github.com/aretw0/pathway/pkg/ports"
)

// ExampleNew_catalog builds a pathway in code and walks one call through it.
// The classifier here is a stand-in for an LLM.
func ExampleNew_catalog() {
	c, err := domain.NewCatalog(
		domain.UngatedStep{Next: "Ask {{customer_name}} for their email"},
		domain.GatedStep{
			Next:  "Thank you",
			Check: "user provided a valid email",
			Error: "Please provide a valid email",
		},
	)
	if err != nil {
		log.Fatal(err)
	}

	hasEmail := ports.ClassifierFunc(func(ctx context.Context, condition, assistant, user string) (bool, error) {
		return strings.Contains(user, "@"), nil
	})

	p, err := pathway.New("", pathway.WithCatalog(c), pathway.WithClassifier(hasEmail))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	for _, msg := range []string{"hello", "no thanks", "ann@acme.test"} {
		d, err := p.Decide(ctx, domain.Turn{
			CallID:    "call-1",
			Messages:  []domain.Message{{Role: domain.RoleUser, Content: msg}},
			Variables: domain.Variables{domain.VarCustomerName: "Ann"},
		})
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%s -> %s (%s)\n", msg, d.SystemPrompt, d.Outcome)
	}

	// Output:
	// hello -> Ask Ann for their email (proceed)
	// no thanks -> Please provide a valid email (reject)
	// ann@acme.test -> Thank you (proceed)
}
