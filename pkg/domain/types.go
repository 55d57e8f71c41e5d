package domain

import "time"

type UserRole string

const (
	RoleUser       UserRole = "user"
	RoleAdmin      UserRole = "admin"
	RoleSuperAdmin UserRole = "super_admin"
)

type WorkStatus string

const (
	WorkPending    WorkStatus = "pending"
	WorkPaid       WorkStatus = "paid"
	WorkAuthorized WorkStatus = "authorized"
	WorkExclusive  WorkStatus = "exclusive"
	WorkRejected   WorkStatus = "rejected"
)

type FileType string

const (
	FileAudio    FileType = "audio"
	FileLyrics   FileType = "lyrics"
	FileContract FileType = "contract"
	FileDocument FileType = "document"
)

type RequestType string

const (
	RequestExclusivity      RequestType = "exclusivity"
	RequestAdditionalRights RequestType = "additional_rights"
)

type AuthorizationStatus string

const (
	AuthorizationPending  AuthorizationStatus = "pending"
	AuthorizationApproved AuthorizationStatus = "approved"
	AuthorizationRejected AuthorizationStatus = "rejected"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
)

type PaymentMethod string

const (
	MethodMercadoPago  PaymentMethod = "mercado_pago"
	MethodSubscription PaymentMethod = "subscription"
)

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      UserRole  `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsAdmin reports whether the user may open the admin dashboard.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperAdmin
}

type Work struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Authors   []string   `json:"authors"`
	CoAuthors []string   `json:"coAuthors,omitempty"`
	ISRC      string     `json:"isrc,omitempty"`
	ISWC      string     `json:"iswc,omitempty"`
	UPCCode   string     `json:"upcCode,omitempty"`
	Status    WorkStatus `json:"status"`
	Files     []WorkFile `json:"files"`
	UserID    string     `json:"userId"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type WorkFile struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	FileType   FileType  `json:"fileType"`
	FileURL    string    `json:"fileUrl"`
	FileSize   int64     `json:"fileSize"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// WorkUpdate carries the fields of a partial work update. Nil fields are
// left untouched by the server.
type WorkUpdate struct {
	Title     *string     `json:"title,omitempty"`
	Authors   []string    `json:"authors,omitempty"`
	CoAuthors []string    `json:"coAuthors,omitempty"`
	ISRC      *string     `json:"isrc,omitempty"`
	ISWC      *string     `json:"iswc,omitempty"`
	Status    *WorkStatus `json:"status,omitempty"`
}

type AuthorizationRequest struct {
	ID          string              `json:"id"`
	WorkID      string              `json:"workId"`
	UserID      string              `json:"userId"`
	RequestType RequestType         `json:"requestType"`
	Description string              `json:"description"`
	Status      AuthorizationStatus `json:"status"`
	ProofFiles  []WorkFile          `json:"proofFiles"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
	Work        *Work               `json:"work,omitempty"`
}

type Payment struct {
	ID            string        `json:"id"`
	UserID        string        `json:"userId"`
	WorkID        string        `json:"workId,omitempty"`
	Amount        int64         `json:"amount"`
	Currency      string        `json:"currency"`
	Status        PaymentStatus `json:"status"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	ExternalID    string        `json:"externalId,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// Analytics is the admin aggregate returned by the analytics endpoint.
type Analytics struct {
	TotalUsers     int64                `json:"totalUsers"`
	TotalWorks     int64                `json:"totalWorks"`
	TotalPayments  int64                `json:"totalPayments"`
	Revenue        int64                `json:"revenue"`
	Currency       string               `json:"currency,omitempty"`
	WorksByStatus  map[WorkStatus]int64 `json:"worksByStatus,omitempty"`
	PendingReviews int64                `json:"pendingReviews"`
}

type LoginCredentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterData struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type AuthResponse struct {
	User         User   `json:"user"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}
