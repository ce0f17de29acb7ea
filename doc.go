/*
Package pathway is a conversation-steering proxy for OpenAI-compatible chat completion APIs.

Every caller (identified by a call id) walks a fixed, cyclic list of steps. On each turn the
proxy replaces the caller's transcript with the current step's system prompt and the latest
user message, then forwards the request upstream. A step may be gated by a natural-language
check: an LLM classifier decides whether the user's reply satisfies it, and the call only
moves on when it does.

# Concept

The pathway file is a JSON or YAML list of steps:

	[
	  {"next": "Greet {{customer_name}} and ask for their email"},
	  {"next": "Thank them", "check": "the user provided a valid email", "error": "Ask again for the email"}
	]

Positions are kept in a pluggable store (memory, file or redis). Turns of the same call are
serialized, turns of different calls run in parallel.

# Usage

	p, err := pathway.New("pathways.json",
		pathway.WithClassifier(cls),
		pathway.WithUpstream(openai.New(os.Getenv("OPENAI_API_KEY"))),
	)
	if err != nil {
		log.Fatal(err)
	}

	h, err := p.Handler()
	if err != nil {
		log.Fatal(err)
	}
	log.Fatal(http.ListenAndServe(":8080", h))

The controller can also be used without HTTP:

	d, err := p.Decide(ctx, domain.Turn{CallID: "call-1", Messages: msgs})
	// d.Messages is the rewritten transcript, d.Outcome the branch taken.
*/
package pathway
