package main

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kickhr/kickhr/internal/api"
	dbstore "github.com/kickhr/kickhr/internal/db"
	"github.com/kickhr/kickhr/internal/middleware"
	"github.com/kickhr/kickhr/internal/utils"
)

func main() {
	addr := utils.SafeEnv("KICKHR_ADDR", ":8080")
	commit := os.Getenv("KICKHR_COMMIT")
	buildTime := os.Getenv("KICKHR_BUILD_TIME")

	store, err := openStore()
	if err != nil {
		log.Fatalf("open store: %v", err)
	}

	mux := http.NewServeMux()
	api.NewRouter(store).Register(mux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":         true,
			"name":       "KickHR Assessment API",
			"commit":     commit,
			"build_time": buildTime,
		})
	})
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"commit":     commit,
			"build_time": buildTime,
		})
	})

	// Frontend serving strategy (priority):
	// 1) Static files if KICKHR_STATIC_DIR is set (fullstack image)
	// 2) Dev proxy if KICKHR_DEV_FRONTEND_URL is set (proxy / to the Vite dev server)
	if staticDir := os.Getenv("KICKHR_STATIC_DIR"); staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	} else if devURL := os.Getenv("KICKHR_DEV_FRONTEND_URL"); devURL != "" {
		if u, err := url.Parse(devURL); err == nil {
			rp := httputil.NewSingleHostReverseProxy(u)
			rp.ModifyResponse = func(res *http.Response) error {
				res.Header.Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
				return nil
			}
			mux.Handle("/", rp)
		} else {
			log.Printf("invalid KICKHR_DEV_FRONTEND_URL=%q: %v", devURL, err)
		}
	}

	handler := middleware.NoStore(middleware.SecureHeaders(middleware.CORS(middleware.WithAuth(mux))))

	log.Printf("KickHR server listening on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// openStore selects SQLite persistence when KICKHR_SQLITE_PATH is set and
// falls back to the in-memory store otherwise.
func openStore() (api.Store, error) {
	sqlitePath := os.Getenv("KICKHR_SQLITE_PATH")
	if sqlitePath == "" {
		log.Printf("KICKHR_SQLITE_PATH not set, using in-memory store")
		return api.NewMemoryStore(), nil
	}
	if err := os.MkdirAll(filepath.Dir(sqlitePath), 0o755); err != nil {
		return nil, err
	}
	dsn := "file:" + filepath.ToSlash(sqlitePath) + "?cache=shared&_busy_timeout=5000"
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	if err := dbstore.RunMigrations(sqlDB, os.Getenv("KICKHR_MIGRATIONS_DIR")); err != nil {
		return nil, err
	}
	log.Printf("using sqlite store at %s", sqlitePath)
	return dbstore.NewStore(sqlDB)
}
