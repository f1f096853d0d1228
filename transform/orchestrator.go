package transform

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"diary-ai-gateway/generation"
	"diary-ai-gateway/styles"
)

// UserPrefix antecede o conteúdo enviado como mensagem do usuário.
const UserPrefix = "content:\n"

// SlotPool limita quantas chamadas rodam ao mesmo tempo no modo paralelo.
// Acquire bloqueia até conseguir uma vaga ou até o ctx terminar.
type SlotPool interface {
	Acquire(ctx context.Context) (release func(), ok bool)
}

type Options struct {
	// Enabled=false desliga a geração: todo Transform devolve skip.
	Enabled bool
	// Parallelism <= 1 chama os estilos em sequência, na ordem pedida.
	Parallelism int
	// Pool opcional para o modo paralelo; sem ele cada Transform usa um
	// semáforo próprio de tamanho Parallelism.
	Pool   SlotPool
	Logger *slog.Logger
}

type Orchestrator struct {
	catalog     *styles.Catalog
	chatter     generation.Chatter
	enabled     bool
	parallelism int
	pool        SlotPool
	log         *slog.Logger
}

func New(catalog *styles.Catalog, chatter generation.Chatter, opts Options) *Orchestrator {
	if catalog == nil {
		catalog = styles.Default()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	return &Orchestrator{
		catalog:     catalog,
		chatter:     chatter,
		enabled:     opts.Enabled && chatter != nil,
		parallelism: opts.Parallelism,
		pool:        opts.Pool,
		log:         opts.Logger,
	}
}

// Catalog devolve o catálogo usado para resolver as chaves.
func (o *Orchestrator) Catalog() *styles.Catalog { return o.catalog }

// Enabled informa se a geração está ligada.
func (o *Orchestrator) Enabled() bool { return o.enabled }

// Transform gera um texto por estilo resolvível. ok=false é o skip: geração
// desligada, nenhum estilo, conteúdo vazio, cota esgotada ou nenhum campo
// gerado.
func (o *Orchestrator) Transform(ctx context.Context, content string, styleKeys []string) (Result, bool) {
	if !o.enabled || len(styleKeys) == 0 {
		return nil, false
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, false
	}

	resolved := o.resolve(styleKeys)
	if len(resolved) == 0 {
		return nil, false
	}

	user := UserPrefix + content

	var (
		res Result
		ok  bool
	)
	if o.parallelism > 1 && len(resolved) > 1 {
		res, ok = o.runParallel(ctx, resolved, user)
	} else {
		res, ok = o.runSequential(ctx, resolved, user)
	}
	if !ok || len(res) == 0 {
		return nil, false
	}
	return res, true
}

// resolve mantém a ordem pedida, descarta chaves desconhecidas e repetidas.
func (o *Orchestrator) resolve(keys []string) []styles.Style {
	seen := make(map[string]struct{}, len(keys))
	out := make([]styles.Style, 0, len(keys))
	for _, k := range keys {
		st, found := o.catalog.Resolve(k)
		if !found {
			continue
		}
		if _, dup := seen[st.Key]; dup {
			continue
		}
		seen[st.Key] = struct{}{}
		out = append(out, st)
	}
	return out
}

func (o *Orchestrator) runSequential(ctx context.Context, list []styles.Style, user string) (Result, bool) {
	res := make(Result, len(list))
	for _, st := range list {
		text, err := o.chatter.Chat(ctx, st.SystemPrompt, user)

		switch generation.Classify(err) {
		case generation.FailureNone:
			out := st.Apply(text)
			res[st.OutputField] = &out
		case generation.FailureQuota:
			o.log.Warn("generation quota exceeded, discarding batch", "style", st.Key, "done", len(res))
			return nil, false
		default:
			o.log.Warn("generation failed for style", "style", st.Key, "error", err)
			res[st.OutputField] = nil
		}
	}
	return res, true
}

type outcome struct {
	text    string
	failure generation.Failure
	ran     bool
}

func (o *Orchestrator) runParallel(ctx context.Context, list []styles.Style, user string) (Result, bool) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool := o.pool
	if pool == nil {
		pool = newSemaphore(o.parallelism)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		quotaHit bool
		results  = make([]outcome, len(list))
	)

	for i, st := range list {
		wg.Add(1)
		go func(i int, st styles.Style) {
			defer wg.Done()

			release, ok := pool.Acquire(ctx)
			if !ok {
				return
			}
			defer release()

			mu.Lock()
			stop := quotaHit
			mu.Unlock()
			if stop {
				return
			}

			text, err := o.chatter.Chat(ctx, st.SystemPrompt, user)
			f := generation.Classify(err)

			mu.Lock()
			defer mu.Unlock()
			results[i] = outcome{text: text, failure: f, ran: true}
			switch f {
			case generation.FailureQuota:
				if !quotaHit {
					quotaHit = true
					cancel()
				}
			case generation.FailureTransient:
				if !quotaHit {
					o.log.Warn("generation failed for style", "style", st.Key, "error", err)
				}
			}
		}(i, st)
	}
	wg.Wait()

	if quotaHit {
		o.log.Warn("generation quota exceeded, discarding batch", "styles", len(list))
		return nil, false
	}

	res := make(Result, len(list))
	for i, st := range list {
		r := results[i]
		if r.ran && r.failure == generation.FailureNone {
			out := st.Apply(r.text)
			res[st.OutputField] = &out
			continue
		}
		// sem vaga (ctx do chamador terminou) conta como falha transitória
		res[st.OutputField] = nil
	}
	return res, true
}

type semaphore chan struct{}

func newSemaphore(n int) semaphore { return make(semaphore, n) }

func (s semaphore) Acquire(ctx context.Context) (func(), bool) {
	select {
	case s <- struct{}{}:
		return func() { <-s }, true
	case <-ctx.Done():
		return nil, false
	}
}
