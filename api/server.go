package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/curionetwork/curio/collection"
	"github.com/curionetwork/curio/event"
	"github.com/curionetwork/curio/gateway"
	"github.com/curionetwork/curio/ledger"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const eventBacklog = 64

// Server is the platform HTTP surface: submit payment outputs, move
// funds, query the collection and drive admin operations. Caller
// accounts come from the request body; the platform trusts them the
// way it trusts sender ids on its payment feed.
type Server struct {
	coll    *collection.Collection
	gw      *gateway.Gateway
	bank    *ledger.Bank
	emitter *event.Emitter
	log     zerolog.Logger

	mu     sync.Mutex
	events []*collection.Event

	router *gin.Engine
}

func NewServer(coll *collection.Collection, gw *gateway.Gateway, bank *ledger.Bank, emitter *event.Emitter, log zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	srv := &Server{
		coll:    coll,
		gw:      gw,
		bank:    bank,
		emitter: emitter,
		log:     log,
		router:  gin.New(),
	}
	srv.router.Use(gin.Recovery())
	if emitter != nil {
		if err := emitter.Subscribe(srv.recordEvent); err != nil {
			panic(err)
		}
	}
	srv.setupRoutes()
	return srv
}

func (s *Server) Run(addr string) error {
	s.log.Info().Str("listen", addr).Msg("api started")
	return s.router.Run(addr)
}

func (s *Server) setupRoutes() {
	s.router.POST("/outputs", s.submitOutput)
	s.router.GET("/outputs/:id", s.getOutput)

	s.router.GET("/collection", s.getCollection)
	s.router.GET("/collection/tokens", s.getTokenByIndex)
	s.router.GET("/collection/tokens/:id", s.getToken)

	s.router.GET("/accounts/:id", s.getAccount)
	s.router.GET("/accounts/:id/tokens", s.getAccountTokens)
	s.router.POST("/accounts/:id/deposits", s.deposit)

	s.router.POST("/transfers", s.transfer)
	s.router.POST("/burns", s.burn)
	s.router.GET("/events", s.getEvents)

	admin := s.router.Group("/admin")
	admin.POST("/pause", s.adminPause)
	admin.POST("/unpause", s.adminUnpause)
	admin.POST("/seal", s.adminSeal)
	admin.POST("/mint-limit", s.adminMintLimit)
	admin.POST("/unit-price", s.adminUnitPrice)
	admin.POST("/base-path", s.adminBasePath)
	admin.POST("/ownership", s.adminOwnership)
	admin.POST("/withdraw", s.adminWithdraw)
}

func (s *Server) recordEvent(ev *collection.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	if len(s.events) > eventBacklog {
		s.events = s.events[len(s.events)-eventBacklog:]
	}
}

type outputRequest struct {
	ID     string `json:"id"`
	Sender string `json:"sender"`
	Amount string `json:"amount"`
	Memo   string `json:"memo"`
}

type depositRequest struct {
	Amount string `json:"amount"`
}

type transferRequest struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Token uint64 `json:"token"`
}

type burnRequest struct {
	Owner string `json:"owner"`
	Token uint64 `json:"token"`
}

type adminRequest struct {
	Caller string `json:"caller"`
	Limit  uint64 `json:"limit"`
	Price  string `json:"price"`
	Path   string `json:"path"`
	Owner  string `json:"owner"`
}

type collectionView struct {
	*collection.Config
	Issued      uint64 `json:"issued"`
	TotalSupply int    `json:"total_supply"`
}

func (s *Server) submitOutput(c *gin.Context) {
	var req outputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid amount %q", req.Amount)})
		return
	}
	out := &gateway.Output{ID: req.ID, Sender: req.Sender, Amount: amount, Memo: req.Memo}
	if err := s.gw.Submit(c.Request.Context(), out); err != nil {
		s.renderError(c, err)
		return
	}
	stored, err := s.gw.ReadOutput(out.ID)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, stored)
}

func (s *Server) getOutput(c *gin.Context) {
	out, err := s.gw.ReadOutput(c.Param("id"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	if out == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "output not found"})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getCollection(c *gin.Context) {
	conf, issued, supply := s.coll.Snapshot()
	c.JSON(http.StatusOK, collectionView{Config: conf, Issued: issued, TotalSupply: supply})
}

func (s *Server) getTokenByIndex(c *gin.Context) {
	index, err := strconv.Atoi(c.DefaultQuery("index", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid index %q", c.Query("index"))})
		return
	}
	id, err := s.coll.TokenByIndex(index)
	if err != nil {
		s.renderError(c, err)
		return
	}
	owner, _ := s.coll.OwnerOf(id)
	c.JSON(http.StatusOK, gin.H{"index": index, "token": id, "owner": owner})
}

func (s *Server) getToken(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid token id %q", c.Param("id"))})
		return
	}
	owner, found := s.coll.OwnerOf(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "token not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": id, "owner": owner})
}

func (s *Server) getAccount(c *gin.Context) {
	account := c.Param("id")
	c.JSON(http.StatusOK, gin.H{
		"account": account,
		"balance": s.bank.Balance(account),
		"tokens":  s.coll.BalanceOf(account),
	})
}

func (s *Server) getAccountTokens(c *gin.Context) {
	account := c.Param("id")
	c.JSON(http.StatusOK, gin.H{
		"account": account,
		"tokens":  s.coll.TokensOf(account),
	})
}

func (s *Server) deposit(c *gin.Context) {
	account := c.Param("id")
	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid amount %q", req.Amount)})
		return
	}
	if err := s.bank.Deposit(account, amount); err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account, "balance": s.bank.Balance(account)})
}

func (s *Server) transfer(c *gin.Context) {
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.coll.Transfer(c.Request.Context(), req.From, req.To, req.Token); err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": req.Token, "owner": req.To})
}

func (s *Server) burn(c *gin.Context) {
	var req burnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.coll.Burn(c.Request.Context(), req.Owner, req.Token); err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": req.Token, "burned": true})
}

func (s *Server) getEvents(c *gin.Context) {
	s.mu.Lock()
	events := make([]*collection.Event, len(s.events))
	copy(events, s.events)
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (s *Server) adminPause(c *gin.Context) {
	s.runAdmin(c, func(req *adminRequest) error {
		return s.coll.Pause(req.Caller)
	})
}

func (s *Server) adminUnpause(c *gin.Context) {
	s.runAdmin(c, func(req *adminRequest) error {
		return s.coll.Unpause(req.Caller)
	})
}

func (s *Server) adminSeal(c *gin.Context) {
	s.runAdmin(c, func(req *adminRequest) error {
		return s.coll.SealMinting(req.Caller)
	})
}

func (s *Server) adminMintLimit(c *gin.Context) {
	s.runAdmin(c, func(req *adminRequest) error {
		return s.coll.SetMintLimit(req.Caller, req.Limit)
	})
}

func (s *Server) adminUnitPrice(c *gin.Context) {
	s.runAdmin(c, func(req *adminRequest) error {
		price, err := decimal.NewFromString(req.Price)
		if err != nil {
			return fmt.Errorf("invalid price %q", req.Price)
		}
		return s.coll.SetUnitPrice(req.Caller, price)
	})
}

func (s *Server) adminBasePath(c *gin.Context) {
	s.runAdmin(c, func(req *adminRequest) error {
		return s.coll.SetBasePath(req.Caller, req.Path)
	})
}

func (s *Server) adminOwnership(c *gin.Context) {
	s.runAdmin(c, func(req *adminRequest) error {
		return s.coll.TransferOwnership(req.Caller, req.Owner)
	})
}

func (s *Server) adminWithdraw(c *gin.Context) {
	var req adminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	amount, err := s.coll.Withdraw(c.Request.Context(), req.Caller)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawn": amount})
}

func (s *Server) runAdmin(c *gin.Context, op func(req *adminRequest) error) {
	var req adminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := op(&req); err != nil {
		s.renderError(c, err)
		return
	}
	conf, issued, supply := s.coll.Snapshot()
	c.JSON(http.StatusOK, collectionView{Config: conf, Issued: issued, TotalSupply: supply})
}

func (s *Server) renderError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

// statusFor maps engine error kinds onto transport statuses. Anything
// untyped is a rejected request.
func statusFor(err error) int {
	var cerr *collection.Error
	if !errors.As(err, &cerr) {
		return http.StatusBadRequest
	}
	switch cerr.Kind {
	case collection.KindValidation:
		return http.StatusBadRequest
	case collection.KindAuthorization:
		return http.StatusForbidden
	case collection.KindIndex:
		return http.StatusNotFound
	case collection.KindReentrancy:
		return http.StatusConflict
	case collection.KindTransfer:
		return http.StatusBadGateway
	}
	return http.StatusBadRequest
}
