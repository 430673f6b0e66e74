package chat

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/ziadkadry99/threadchat/internal/embedding"
)

// minReplyEmbedLength is the shortest assistant reply worth embedding.
const minReplyEmbedLength = 20

// replyEmbedTimeout bounds the detached fire-and-forget embedding of a
// produced reply.
const replyEmbedTimeout = 15 * time.Second

// Pipeline coordinates classification, embedding, retrieval, prompt
// composition and generation for each inbound user message. It holds no
// mutable state beyond configuration, so one Pipeline may serve concurrent
// requests.
type Pipeline struct {
	rag      *embedding.Client
	composer *Composer
	engine   *Engine

	// wg tracks fire-and-forget reply embeddings so tests and shutdown
	// can wait for them.
	wg sync.WaitGroup
}

// NewPipeline wires a Pipeline from its injected collaborators.
func NewPipeline(rag *embedding.Client, engine *Engine) *Pipeline {
	return &Pipeline{
		rag:      rag,
		composer: NewComposer(rag),
		engine:   engine,
	}
}

// HandleUserMessage runs the full pipeline for one user message and always
// returns a reply. History must be in ascending chronological order.
//
// Path selection:
//   - trivial message: generate from history alone, no embedding or RAG
//   - embedding client disabled: generate from the raw content, flagged
//     as fallback
//   - otherwise: best-effort embed, compose an enhanced prompt (degrades
//     to the raw content on retrieval failure), then generate
//
// Replies longer than minReplyEmbedLength are embedded fire-and-forget;
// a failure there never affects the already-computed reply.
func (p *Pipeline) HandleUserMessage(ctx context.Context, threadID, userID, content string, history []Turn) Reply {
	if IsTrivial(content) {
		return Reply{Content: p.engine.GenerateResponse(ctx, threadID, content, history)}
	}

	if !p.rag.Enabled() {
		return Reply{
			Content:      p.engine.GenerateResponse(ctx, threadID, content, history),
			UsedFallback: true,
		}
	}

	// Store the message embedding before retrieval so the freshest turn is
	// available to similarity search. Best-effort: failure only logs.
	if err := p.rag.CreateEmbedding(ctx, userID, content, threadID, ""); err != nil {
		log.Printf("chat: embedding user message in thread %s: %v", threadID, err)
	}

	prompt := p.composer.ComposePrompt(ctx, userID, content, threadID)
	reply := p.engine.GenerateResponse(ctx, threadID, prompt, history)

	if len(reply) > minReplyEmbedLength {
		p.embedReplyAsync(userID, threadID, reply)
	}

	return Reply{Content: reply}
}

// embedReplyAsync stores the assistant reply's embedding without delaying
// the response. The context is detached from the request on purpose: the
// caller's request finishing must not cancel the write.
func (p *Pipeline) embedReplyAsync(userID, threadID, reply string) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), replyEmbedTimeout)
		defer cancel()
		if err := p.rag.CreateEmbedding(ctx, userID, reply, threadID, ""); err != nil {
			log.Printf("chat: embedding reply in thread %s: %v", threadID, err)
		}
	}()
}

// Wait blocks until all in-flight reply embeddings finish. Used on
// shutdown and in tests.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}
