package main

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"pesterer/pkg/api"
	"pesterer/pkg/store"
	"strconv"
	"strings"
	"time"

	scalargo "github.com/bdpiprava/scalar-go"
	"github.com/spf13/cobra"
)

var serveListen string

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "address to listen on (default from config, :9090)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve [--listen <addr>]",
	Short: "Serves the persisted products, stores, availability and runs over HTTP.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		addr := cfg.Listen
		if serveListen != "" {
			addr = serveListen
		}

		srv := &statusServer{store: st, specDir: cfg.SpecDir}
		server := &http.Server{
			Addr:              addr,
			Handler:           srv.routes(),
			ReadHeaderTimeout: 15 * time.Second,
			IdleTimeout:       120 * time.Second,
		}

		_, port, _ := net.SplitHostPort(addr)
		if ip := GetOutboundIP(); ip != nil {
			slog.Info("local network url", "url", fmt.Sprintf("http://%s:%s", ip, port))
		}
		slog.Info("serving status api", "url", fmt.Sprintf("http://localhost:%s", port))

		go func() {
			<-cmd.Context().Done()
			server.Close()
		}()

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	},
}

type statusServer struct {
	store   *store.Store
	specDir string
}

func (s *statusServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.rootHandler)
	mux.HandleFunc("/products", s.productsHandler)
	mux.HandleFunc("/products/", s.productsHandler)
	mux.HandleFunc("/stores", s.storesHandler)
	mux.HandleFunc("/stores/", s.storesHandler)
	mux.HandleFunc("/availability", s.availabilityHandler)
	mux.HandleFunc("/runs", s.runsHandler)
	return mux
}

func (s *statusServer) rootHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		api.WriteNotFound(w, "Unknown path. Available: /products, /products/{id}, /stores, /stores/{id}, /availability, /runs", r.URL.Path)
		return
	}

	// Serve Scalar docs on root path
	html, err := scalargo.NewV2(
		scalargo.WithSpecDir(s.specDir),
		scalargo.WithMetaDataOpts(
			scalargo.WithTitle("Pesterer Status API"),
		),
	)
	if err != nil {
		api.WriteInternalServerError(w, err, r.URL.Path)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, html)
}

func (s *statusServer) productsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		api.WriteMethodNotAllowed(w, http.MethodGet, r.URL.Path)
		return
	}

	// Path expected: /products or /products/{id}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/products"), "/")
	if strings.Contains(id, "/") {
		api.WriteBadRequest(w, "Invalid path. Expected /products or /products/{id}", r.URL.Path)
		return
	}

	if id == "" {
		products, err := s.store.Products(r.Context(), favoritesOnly(r))
		if err != nil {
			api.WriteFromError(w, err, r.URL.Path)
			return
		}
		api.WriteJSON(w, nonNil(products))
		return
	}

	product, err := s.store.Product(r.Context(), id)
	if err != nil {
		api.WriteFromError(w, err, r.URL.Path)
		return
	}
	api.WriteJSON(w, product)
}

func (s *statusServer) storesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		api.WriteMethodNotAllowed(w, http.MethodGet, r.URL.Path)
		return
	}

	// Path expected: /stores or /stores/{full id}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/stores"), "/")
	if strings.Contains(id, "/") {
		api.WriteBadRequest(w, "Invalid path. Expected /stores or /stores/{id}", r.URL.Path)
		return
	}

	if id == "" {
		stores, err := s.store.Stores(r.Context(), favoritesOnly(r))
		if err != nil {
			api.WriteFromError(w, err, r.URL.Path)
			return
		}
		api.WriteJSON(w, nonNil(stores))
		return
	}

	st, err := s.store.Store(r.Context(), id)
	if err != nil {
		api.WriteFromError(w, err, r.URL.Path)
		return
	}
	api.WriteJSON(w, st)
}

func (s *statusServer) availabilityHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		api.WriteMethodNotAllowed(w, http.MethodGet, r.URL.Path)
		return
	}
	q := r.URL.Query()
	productID, storeID := q.Get("product"), q.Get("store")

	// unknown filters are a 404, not an empty listing
	if productID != "" {
		if _, err := s.store.Product(r.Context(), productID); err != nil {
			api.WriteFromError(w, err, r.URL.Path)
			return
		}
	}
	if storeID != "" {
		if _, err := s.store.Store(r.Context(), storeID); err != nil {
			api.WriteFromError(w, err, r.URL.Path)
			return
		}
	}

	rows, err := s.store.ListAvailability(r.Context(), productID, storeID)
	if err != nil {
		api.WriteFromError(w, err, r.URL.Path)
		return
	}
	api.WriteJSON(w, nonNil(rows))
}

func (s *statusServer) runsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		api.WriteMethodNotAllowed(w, http.MethodGet, r.URL.Path)
		return
	}

	limit := 20
	if val := r.URL.Query().Get("limit"); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil || parsed <= 0 {
			api.WriteBadRequest(w, fmt.Sprintf("Invalid limit: %s. Must be a positive integer.", val), r.URL.Path)
			return
		}
		limit = parsed
	}

	runs, err := s.store.Runs(r.Context(), limit)
	if err != nil {
		api.WriteFromError(w, err, r.URL.Path)
		return
	}
	api.WriteJSON(w, nonNil(runs))
}

func favoritesOnly(r *http.Request) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get("favorites"))
	return v
}

// nonNil keeps empty listings encoded as [] rather than null.
func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

func GetOutboundIP() net.IP {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		addrs, _ := net.InterfaceAddrs()
		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					return ipnet.IP
				}
			}
		}
		return nil
	}
	defer conn.Close()

	return conn.LocalAddr().(*net.UDPAddr).IP
}
