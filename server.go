package main

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const (
	maxBodySize    = 64 << 10
	requestTimeout = 30 * time.Second
)

// Server is the main HTTP server.
type Server struct {
	router chi.Router
	cfg    *Config

	store        Store
	sse          *Broadcaster
	board        *Leaderboard
	recorder     *Recorder
	challenges   *Challenges
	achievements *Achievements
	quiz         *Quiz
	matches      *Matches
	drills       *Drills
	chat         *ChatService
	companion    *Companion
	tts          Synthesizer
	admin        *AdminAuth

	chatRL *rateLimiter
	ttsRL  *rateLimiter

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewServer wires the services onto store. cache, provider and tts may be nil.
func NewServer(cfg *Config, store Store, cache LeaderboardCache, provider ChatProvider, tts Synthesizer) *Server {
	loc := cfg.Location()
	sse := NewBroadcaster()
	board := NewLeaderboard(store, cache, sse)
	challenges := NewChallenges(store, loc, nil)
	achievements := NewAchievements(store)
	chat := NewChatService(provider)

	s := &Server{
		cfg:          cfg,
		store:        store,
		sse:          sse,
		board:        board,
		recorder:     NewRecorder(board, store, challenges, achievements, loc),
		challenges:   challenges,
		achievements: achievements,
		quiz:         NewQuiz(store),
		matches:      NewMatches(nil),
		drills:       NewDrills(nil),
		chat:         chat,
		companion:    NewCompanion(chat, sse, cfg.Companion.Cooldown),
		tts:          tts,
		admin:        NewAdminAuth(cfg.Auth.AdminPassword, cfg.Auth.JWTSecret),
		chatRL:       newRateLimiter(10, time.Minute), // 10 chats/min per IP
		ttsRL:        newRateLimiter(20, time.Minute), // 20 syntheses/min per IP
		rng:          rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	s.routes()
	return s
}

// Run drives the background workers until ctx is cancelled.
func (s *Server) Run(ctx context.Context) {
	go s.chatRL.run(ctx)
	go s.ttsRL.run(ctx)
	s.companion.Run(ctx)
}

func (s *Server) routes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.HTTP.Origins(),
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key", adminTokenHeader},
		MaxAge:         300,
	}))
	r.Use(securityHeaders)
	r.Use(basicAuth(s.cfg.Auth.SiteUser, s.cfg.Auth.SitePass))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		jsonError(w, "not found", http.StatusNotFound)
	})

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		// Event streams stay open; everything else gets a deadline.
		r.Get("/leaderboard/{game}/events", s.handleLeaderboardEvents)
		r.Get("/matches/{id}/events", s.handleMatchEvents)
		r.Get("/companion/{name}/events", s.handleCompanionEvents)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))

			r.With(clientKey(s.cfg.Auth.ClientKey, rejectChat(http.StatusUnauthorized, "invalid client key")),
				s.chatRL.limit(rejectChat(http.StatusTooManyRequests, "too many requests"))).
				Post("/chat", s.handleChat)
			r.With(clientKey(s.cfg.Auth.ClientKey, rejectTTS(http.StatusUnauthorized, "invalid client key")),
				s.ttsRL.limit(rejectTTS(http.StatusTooManyRequests, "too many requests"))).
				Post("/tts", s.handleTTS)

			r.Get("/games", s.handleListGames)
			r.Post("/games/{game}/results", s.handleRecordResult)

			r.Get("/leaderboard/{game}", s.handleGetLeaderboard)
			r.Post("/leaderboard/{game}", s.handleAddScore)

			r.Get("/players/{name}/stats", s.handlePlayerStats)
			r.Get("/players/{name}/challenges", s.handlePlayerChallenges)
			r.Get("/players/{name}/achievements", s.handlePlayerAchievements)

			r.Get("/quiz", s.handleListQuiz)
			r.Post("/quiz/{id}/answer", s.handleAnswerQuiz)

			r.Post("/wordsearch", s.handleWordSearch)

			r.Get("/drills/math", s.handleMathDrill)
			r.Get("/drills/sorting", s.handleSortingDrill)
			r.Post("/drills/sorting/check", s.handleSortingCheck)
			r.Get("/drills/sequence", s.handleSequenceDrill)

			r.Post("/matches", s.handleCreateMatch)
			r.Get("/matches/{id}", s.handleGetMatch)
			r.Post("/matches/{id}/move", s.handleMatchMove)

			// Every trigger can end in a provider call, so it shares the chat gates.
			r.With(clientKey(s.cfg.Auth.ClientKey, rejectJSON(http.StatusUnauthorized, "invalid client key")),
				s.chatRL.limit(rejectJSON(http.StatusTooManyRequests, "too many requests"))).
				Post("/companion/{name}/trigger", s.handleCompanionTrigger)
			r.Get("/companion/{name}/queue", s.handleCompanionQueue)

			r.Route("/admin", func(r chi.Router) {
				r.Post("/login", s.handleAdminLogin)
				r.Group(func(r chi.Router) {
					r.Use(s.admin.Middleware)
					r.Get("/quiz", s.handleAdminListQuiz)
					r.Post("/quiz", s.handleAdminCreateQuiz)
					r.Put("/quiz/{id}", s.handleAdminUpdateQuiz)
					r.Delete("/quiz/{id}", s.handleAdminDeleteQuiz)
					r.Delete("/leaderboard/{game}", s.handleAdminClearLeaderboard)
					r.Delete("/leaderboard/{game}/{id}", s.handleAdminDeleteScore)
					r.Get("/stats", s.handleAdminListStats)
				})
			})
		})
	})

	if dir := s.cfg.HTTP.StaticDir; dir != "" {
		r.Handle("/*", spaHandler(dir))
	}

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; media-src 'self' data: blob:; connect-src 'self'")
		next.ServeHTTP(w, r)
	})
}

// spaHandler serves files from dir and falls back to index.html so client
// side routes resolve.
func spaHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := filepath.Join(dir, filepath.Clean("/"+r.URL.Path))
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}
		files.ServeHTTP(w, r)
	})
}

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		log.Printf("health: store ping: %v", err)
		jsonError(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Proxies ---

func rejectJSON(code int, msg string) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, _ *http.Request) {
		jsonError(w, msg, code)
	}
}

func rejectChat(code int, msg string) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, _ *http.Request) {
		chatError(w, msg, code, "")
	}
}

func rejectTTS(code int, msg string) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, _ *http.Request) {
		ttsError(w, msg, code)
	}
}

func chatError(w http.ResponseWriter, msg string, code int, game string) {
	respondJSON(w, code, map[string]string{
		"error":    msg,
		"fallback": fallbackFor(game),
	})
}

func ttsError(w http.ResponseWriter, msg string, code int) {
	respondJSON(w, code, map[string]any{
		"error":       msg,
		"useFallback": true,
	})
}

// POST /api/chat
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		chatError(w, "invalid request body", http.StatusBadRequest, "")
		return
	}
	if err := req.Validate(); err != nil {
		game := ""
		if req.Context != nil {
			game = req.Context.Game
		}
		chatError(w, err.Error(), http.StatusBadRequest, game)
		return
	}

	msg, err := s.chat.Reply(r.Context(), req)
	switch {
	case errors.Is(err, ErrNoChatProvider):
		chatError(w, "chat not configured", http.StatusServiceUnavailable, req.Context.Game)
		return
	case err != nil:
		log.Printf("chat %s: %v", req.Context.Game, err)
		chatError(w, "companion unavailable", http.StatusBadGateway, req.Context.Game)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": msg})
}

// POST /api/tts
func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	var req TTSRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ttsError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	voice, err := req.Validate()
	if err != nil {
		ttsError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if s.tts == nil {
		ttsError(w, ErrNoTTS.Error(), http.StatusServiceUnavailable)
		return
	}

	audio, err := s.tts.Synthesize(r.Context(), req.Text, voice)
	if err != nil {
		log.Printf("tts: %v", err)
		ttsError(w, "speech synthesis failed", http.StatusBadGateway)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"audioContent": audio,
		"success":      true,
	})
}

// --- Games, leaderboard and results ---

func (s *Server) handleListGames(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, gameCatalog)
}

// queryDifficulty reads ?difficulty=. Empty means all difficulties.
func queryDifficulty(r *http.Request) (Difficulty, error) {
	q := r.URL.Query().Get("difficulty")
	if q == "" {
		return "", nil
	}
	return parseDifficulty(q)
}

// GET /api/leaderboard/{game}
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	d, err := queryDifficulty(r)
	if err != nil {
		writeError(w, err)
		return
	}
	game := chi.URLParam(r, "game")
	entries, err := s.board.Top(r.Context(), game, d)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"game":       game,
		"difficulty": d,
		"entries":    entries,
	})
}

// POST /api/leaderboard/{game}
func (s *Server) handleAddScore(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       string `json:"name"`
		Score      int64  `json:"score"`
		Difficulty string `json:"difficulty"`
		Time       *int64 `json:"time"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	entry, err := s.board.Add(r.Context(), LeaderboardEntry{
		Game:       chi.URLParam(r, "game"),
		Name:       req.Name,
		Score:      req.Score,
		Difficulty: Difficulty(req.Difficulty),
		Time:       req.Time,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, entry)
}

// GET /api/leaderboard/{game}/events
func (s *Server) handleLeaderboardEvents(w http.ResponseWriter, r *http.Request) {
	game, ok := lookupGame(chi.URLParam(r, "game"))
	if !ok {
		jsonError(w, "unknown game", http.StatusNotFound)
		return
	}
	s.sse.ServeSSE(w, r, leaderboardTopic(game.ID), func(sub *subscriber) {
		evt, err := s.board.snapshotEvent(r.Context(), game.ID)
		if err != nil {
			log.Printf("leaderboard snapshot %s: %v", game.ID, err)
			return
		}
		sub.ch <- evt
	}, nil)
}

// POST /api/games/{game}/results
func (s *Server) handleRecordResult(w http.ResponseWriter, r *http.Request) {
	var req ResultRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	out, err := s.recorder.Record(r.Context(), chi.URLParam(r, "game"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// --- Players ---

func (s *Server) handlePlayerStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.PlayerStats(r.Context(), sanitizeName(chi.URLParam(r, "name")))
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, st)
}

func (s *Server) handlePlayerChallenges(w http.ResponseWriter, r *http.Request) {
	cs, err := s.challenges.Today(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cs)
}

func (s *Server) handlePlayerAchievements(w http.ResponseWriter, r *http.Request) {
	list, err := s.achievements.List(r.Context(), sanitizeName(chi.URLParam(r, "name")))
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// --- Quiz ---

func (s *Server) handleListQuiz(w http.ResponseWriter, r *http.Request) {
	list, err := s.quiz.Questions(r.Context(), false)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (s *Server) handleAnswerQuiz(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Answer string `json:"answer"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	correct, answer, err := s.quiz.Check(r.Context(), chi.URLParam(r, "id"), req.Answer)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"correct": correct,
		"answer":  answer,
	})
}

// --- Word search and drills ---

func (s *Server) handleWordSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Words      []string `json:"words"`
		Difficulty string   `json:"difficulty"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	d, err := parseDifficulty(req.Difficulty)
	if err != nil {
		writeError(w, err)
		return
	}

	s.rngMu.Lock()
	ws, err := GenerateWordSearch(req.Words, d, s.rng)
	s.rngMu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ws)
}

func (s *Server) handleMathDrill(w http.ResponseWriter, r *http.Request) {
	d, err := parseDifficulty(r.URL.Query().Get("difficulty"))
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"difficulty": d,
		"problems":   s.drills.Math(d),
	})
}

func (s *Server) handleSortingDrill(w http.ResponseWriter, r *http.Request) {
	d, err := parseDifficulty(r.URL.Query().Get("difficulty"))
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s.drills.Sorting(d))
}

func (s *Server) handleSortingCheck(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Numbers  []int `json:"numbers"`
		Ordering []int `json:"ordering"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"correct": CheckSorting(req.Numbers, req.Ordering)})
}

func (s *Server) handleSequenceDrill(w http.ResponseWriter, r *http.Request) {
	d, err := parseDifficulty(r.URL.Query().Get("difficulty"))
	if err != nil {
		writeError(w, err)
		return
	}
	n := 4
	if v := r.URL.Query().Get("length"); v != "" {
		n, err = strconv.Atoi(v)
		if err != nil {
			jsonError(w, "length must be a number", http.StatusBadRequest)
			return
		}
	}
	respondJSON(w, http.StatusOK, s.drills.Sequence(d, n))
}

// --- Matches ---

func matchTopic(id string) string {
	return "match:" + id
}

type matchResponse struct {
	MatchView
	Result *ResultOutcome `json:"result,omitempty"`
}

func (s *Server) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind       string `json:"kind"`
		Difficulty string `json:"difficulty"`
		Player     string `json:"player"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	d, err := parseDifficulty(req.Difficulty)
	if err != nil {
		writeError(w, err)
		return
	}
	m, err := s.matches.Create(MatchKind(req.Kind), d, req.Player)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, m.View())
}

func (s *Server) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	m := s.matches.Get(chi.URLParam(r, "id"))
	if m == nil {
		jsonError(w, "match not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, m.View())
}

// POST /api/matches/{id}/move. The move that ends a match also records it
// as a result: a win scores 1, anything else 0.
func (s *Server) handleMatchMove(w http.ResponseWriter, r *http.Request) {
	m := s.matches.Get(chi.URLParam(r, "id"))
	if m == nil {
		jsonError(w, "match not found", http.StatusNotFound)
		return
	}
	var req struct {
		Row int `json:"row"`
		Col int `json:"col"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	view, err := s.matches.Play(m, req.Row, req.Col)
	if err != nil {
		writeError(w, err)
		return
	}
	s.sse.Publish(matchTopic(view.ID), map[string]any{"type": "match", "match": view})

	resp := matchResponse{MatchView: view}
	if view.FinishedAt != nil {
		var score int64
		if view.Winner == view.PlayerMark {
			score = 1
		}
		out, err := s.recorder.Record(r.Context(), string(view.Kind), ResultRequest{
			Name:            view.Player,
			Score:           score,
			Difficulty:      string(view.Difficulty),
			DurationSeconds: int64(view.FinishedAt.Sub(view.CreatedAt).Seconds()),
		})
		if err != nil {
			log.Printf("match %s: record result: %v", view.ID, err)
		} else {
			resp.Result = &out
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMatchEvents(w http.ResponseWriter, r *http.Request) {
	m := s.matches.Get(chi.URLParam(r, "id"))
	if m == nil {
		jsonError(w, "match not found", http.StatusNotFound)
		return
	}
	s.sse.ServeSSE(w, r, matchTopic(m.ID()), func(sub *subscriber) {
		evt, _ := json.Marshal(map[string]any{"type": "match", "match": m.View()})
		sub.ch <- string(evt)
	}, nil)
}

// --- Companion ---

func (s *Server) handleCompanionTrigger(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt  string      `json:"prompt"`
		Context ChatContext `json:"context"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	depth, err := s.companion.Trigger(chi.URLParam(r, "name"), Trigger{
		Prompt:  req.Prompt,
		Context: req.Context,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]int{"queued": depth})
}

func (s *Server) handleCompanionQueue(w http.ResponseWriter, r *http.Request) {
	pending := s.companion.Pending(chi.URLParam(r, "name"))
	if pending == nil {
		pending = []Trigger{}
	}
	respondJSON(w, http.StatusOK, pending)
}

func (s *Server) handleCompanionEvents(w http.ResponseWriter, r *http.Request) {
	player := sanitizeName(chi.URLParam(r, "name"))
	if player == "" {
		jsonError(w, "name required", http.StatusBadRequest)
		return
	}
	s.sse.ServeSSE(w, r, companionTopic(player), nil, nil)
}

// --- Admin ---

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	token, exp, err := s.admin.Login(req.Password)
	switch {
	case errors.Is(err, ErrAdminDisabled):
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	case errors.Is(err, ErrBadPassword):
		jsonError(w, err.Error(), http.StatusUnauthorized)
		return
	case err != nil:
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"token":     token,
		"expiresAt": exp.UTC(),
	})
}

func (s *Server) handleAdminListQuiz(w http.ResponseWriter, r *http.Request) {
	list, err := s.quiz.Questions(r.Context(), true)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (s *Server) handleAdminCreateQuiz(w http.ResponseWriter, r *http.Request) {
	var q QuizQuestion
	if err := decodeJSON(w, r, &q); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	created, err := s.quiz.Create(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleAdminUpdateQuiz(w http.ResponseWriter, r *http.Request) {
	var q QuizQuestion
	if err := decodeJSON(w, r, &q); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	q.ID = chi.URLParam(r, "id")
	updated, err := s.quiz.Update(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleAdminDeleteQuiz(w http.ResponseWriter, r *http.Request) {
	if err := s.quiz.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdminClearLeaderboard(w http.ResponseWriter, r *http.Request) {
	if err := s.board.Clear(r.Context(), chi.URLParam(r, "game")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdminDeleteScore(w http.ResponseWriter, r *http.Request) {
	if err := s.board.Delete(r.Context(), chi.URLParam(r, "game"), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdminListStats(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListPlayerStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// --- Helpers ---

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	return json.NewDecoder(r.Body).Decode(v)
}

func respondJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// writeError maps err to a status. Internal errors are logged and not echoed.
func writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
		jsonError(w, "internal error", code)
		return
	}
	jsonError(w, err.Error(), code)
}
