package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/config"
	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/middleware"
	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/models"
	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/realtime"
	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/services/wallet"
)

type Deps struct {
	DB     *gorm.DB
	Config config.Config
	Hub    *realtime.Hub
	Relay  realtime.Emitter
}

// Register mounts the REST API under /api/v1 and the chat socket under /ws/chat.
func Register(app *fiber.App, d Deps) {
	w := wallet.NewWalletService(d.DB)
	secure := d.Config.IsProduction()

	authH := &AuthHandler{DB: d.DB, JWTSecret: d.Config.JWTSecret, Expires: d.Config.JWTExpiresMin, SecureCookie: secure}
	googleH := &GoogleOAuthHandler{
		DB:              d.DB,
		JWTSecret:       d.Config.JWTSecret,
		Expires:         d.Config.JWTExpiresMin,
		SecureCookie:    secure,
		GoogleClientID:  d.Config.GoogleClientID,
		GoogleSecret:    d.Config.GoogleSecret,
		GoogleRedirect:  d.Config.GoogleRedirect,
		FrontendBaseURL: d.Config.FrontendBaseURL,
	}
	userH := NewUserHandler(d.DB)
	clientH := NewClientHandler(d.DB, w)
	freelancerH := NewFreelancerHandler(d.DB, w)
	skillH := NewSkillHandler(d.DB)
	jobH := NewJobHandler(d.DB, w, d.Relay)
	proposalH := NewProposalHandler(d.DB, w, d.Relay)
	submissionH := NewSubmissionHandler(d.DB)
	trxH := NewTransactionHandler(d.DB)
	chatH := NewChatHandler(d.DB, d.Hub, d.Relay, d.Config.JWTSecret)
	dashH := NewDashboardHandler(d.DB)

	api := app.Group("/api/v1")

	// public
	api.Post("/user/register", authH.Register)
	api.Post("/client/register", authH.RegisterAs(models.RoleClient))
	api.Post("/freelancer/register", authH.RegisterAs(models.RoleFreelancer))
	api.Post("/user/login", authH.Login)
	api.Get("/auth/google/start", googleH.GoogleStart)
	api.Get("/auth/google/callback", googleH.GoogleCallback)

	// protected (JWT)
	protected := api.Group("/",
		middleware.JWTFromCookie(d.Config.JWTSecret),
		middleware.AttachJWTLocals(),
	)
	admin := middleware.RequireRoles(string(models.RoleAdmin))
	clientOnly := middleware.RequireRoles(string(models.RoleClient))
	freelancerOnly := middleware.RequireRoles(string(models.RoleFreelancer))

	user := protected.Group("/user")
	user.Post("/logout", authH.Logout)
	user.Get("/me", authH.Me)
	user.Get("/", userH.List)
	user.Get("/search", userH.Search)
	user.Get("/by-type/:accType", userH.ByType)
	user.Post("/", admin, userH.Create)
	user.Get("/:userID", userH.Get)
	user.Put("/:userID", userH.Update)
	user.Delete("/:userID", userH.Delete)

	client := protected.Group("/client")
	client.Post("/add-funds", clientOnly, clientH.AddFunds)
	client.Get("/spent/:userID", clientH.Spent)
	client.Post("/", clientOnly, clientH.Create)
	client.Get("/", clientH.List)
	client.Get("/:cID", clientH.Get)
	client.Put("/:cID", clientH.Update)
	client.Delete("/:cID", clientH.Delete)

	freelancer := protected.Group("/freelancer")
	freelancer.Post("/buy-connects", freelancerOnly, freelancerH.BuyConnects)
	freelancer.Post("/withdraw", freelancerOnly, freelancerH.Withdraw)
	freelancer.Get("/earnings/:freelancerID", freelancerH.Earnings)
	freelancer.Get("/totalConnects/:freelancerID", freelancerH.TotalConnects)
	freelancer.Get("/appliedJobs/:freelancerId", freelancerH.AppliedJobs)
	freelancer.Post("/", freelancerOnly, freelancerH.Create)
	freelancer.Get("/", freelancerH.List)
	freelancer.Get("/:freelancerID", freelancerH.Get)
	freelancer.Put("/:freelancerID", freelancerH.Update)
	freelancer.Delete("/:freelancerID", freelancerH.Delete)

	fSkills := protected.Group("/freelancer-skills")
	fSkills.Post("/", skillH.AddToFreelancer)
	fSkills.Delete("/", skillH.RemoveFromFreelancer)
	fSkills.Get("/:freelancerID", skillH.ListForFreelancer)

	skills := protected.Group("/skills")
	skills.Post("/", skillH.Create)
	skills.Get("/", skillH.List)
	skills.Get("/:skillID", skillH.Get)
	skills.Put("/:skillID", skillH.Update)
	skills.Delete("/:skillID", skillH.Delete)

	jobs := protected.Group("/jobs")
	jobs.Get("/", jobH.ListOpen)
	jobs.Get("/active", jobH.ListActive)
	jobs.Post("/", clientOnly, jobH.Create)
	jobs.Get("/client/:clientId", jobH.ByClient)
	jobs.Get("/ongoing/:userID", jobH.OngoingForClient)
	jobs.Get("/ongoingfreelancerJobs/:userID", jobH.OngoingForFreelancer)
	jobs.Post("/complete/:jobID", clientOnly, jobH.Complete)
	jobs.Get("/:jobID", jobH.Get)
	jobs.Put("/:jobID", jobH.Update)
	jobs.Delete("/:jobID", jobH.Delete)

	proposals := protected.Group("/proposals")
	proposals.Post("/", freelancerOnly, proposalH.Submit)
	proposals.Post("/accept/:proposalID", clientOnly, proposalH.Accept)
	proposals.Get("/job/:jobID", proposalH.ByJob)
	proposals.Get("/freelancer/:freelancerID", proposalH.ByFreelancer)
	proposals.Delete("/:proposalID", freelancerOnly, proposalH.Delete)

	subs := protected.Group("/submissions")
	subs.Get("/job/:jobID", submissionH.ByJob)
	subs.Post("/", freelancerOnly, submissionH.Create)
	subs.Get("/", submissionH.List)
	subs.Get("/:id", submissionH.Get)
	subs.Put("/:id", submissionH.Update)
	subs.Delete("/:id", submissionH.Delete)

	// "/transations" is kept for older clients
	for _, prefix := range []string{"/transactions", "/transations"} {
		trx := protected.Group(prefix)
		trx.Post("/", trxH.Create)
		trx.Get("/", trxH.List)
		trx.Get("/history", trxH.History)
		trx.Get("/job/:jID", trxH.ByJob)
		trx.Get("/user/:userId", trxH.ByUser)
		trx.Get("/client/:clientId", trxH.ByClient)
		trx.Get("/freelancer/:freelancerID", trxH.ByFreelancer)
		trx.Get("/:transactionID", trxH.Get)
		trx.Put("/:transactionID", trxH.Update)
		trx.Delete("/:transactionID", trxH.Delete)
	}

	msgs := protected.Group("/messages")
	msgs.Get("/unread/:userID", chatH.UnreadCount)
	msgs.Get("/conversations/:userID", chatH.Conversations)
	msgs.Post("/start-conversation", chatH.StartConversation)
	msgs.Get("/:userID1/:userID2", chatH.Between)

	dash := protected.Group("/dashboard")
	dash.Get("/stats", dashH.Stats)
	dash.Get("/ledger", dashH.Ledger)
	dash.Get("/proposals/:freelancerID", dashH.Proposals)
	dash.Get("/jobs/:clientID", dashH.Jobs)
	dash.Get("/unread-messages/:userID", dashH.UnreadMessages)
	dash.Get("/transactions/:userID", dashH.Transactions)

	// websocket authenticates from ?token= during the handshake
	app.Get("/ws/chat", chatH.WebSocketUpgrade(), websocket.New(chatH.WebSocketHandler))
}
