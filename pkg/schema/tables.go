package schema

// Role of a dashboard user.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleAnalyst Role = "analyst"
	RoleViewer  Role = "viewer"
)

// Severity of a vulnerability.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// VulnStatus tracks a vulnerability through triage.
type VulnStatus string

const (
	StatusOpen          VulnStatus = "open"
	StatusInProgress    VulnStatus = "in_progress"
	StatusResolved      VulnStatus = "resolved"
	StatusFalsePositive VulnStatus = "false_positive"
)

// Profile is a row of profiles.
type Profile struct {
	ID        string  `json:"id" sql:"id"`
	FullName  *string `json:"full_name" sql:"full_name"`
	Role      Role    `json:"role" sql:"role"`
	AvatarURL *string `json:"avatar_url" sql:"avatar_url"`
	CreatedAt string  `json:"created_at" sql:"created_at"`
	UpdatedAt string  `json:"updated_at" sql:"updated_at"`
}

type ProfileInsert struct {
	ID        string  `json:"id"`
	FullName  *string `json:"full_name,omitempty"`
	Role      Role    `json:"role,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

type ProfileUpdate struct {
	FullName  *string `json:"full_name,omitempty"`
	Role      Role    `json:"role,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// Asset is a row of assets.
type Asset struct {
	ID        string  `json:"id" sql:"id"`
	Name      string  `json:"name" sql:"name"`
	Type      string  `json:"type" sql:"type"`
	IPAddress *string `json:"ip_address" sql:"ip_address"`
	Status    string  `json:"status" sql:"status"`
	RiskScore float64 `json:"risk_score" sql:"risk_score"`
	CreatedAt string  `json:"created_at" sql:"created_at"`
	UpdatedAt string  `json:"updated_at" sql:"updated_at"`
}

type AssetInsert struct {
	ID        string   `json:"id,omitempty"`
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	IPAddress *string  `json:"ip_address,omitempty"`
	Status    string   `json:"status,omitempty"`
	RiskScore *float64 `json:"risk_score,omitempty"`
}

type AssetUpdate struct {
	Name      *string  `json:"name,omitempty"`
	Type      *string  `json:"type,omitempty"`
	IPAddress *string  `json:"ip_address,omitempty"`
	Status    *string  `json:"status,omitempty"`
	RiskScore *float64 `json:"risk_score,omitempty"`
}

// Vulnerability is a row of vulnerabilities.
type Vulnerability struct {
	ID           string     `json:"id" sql:"id"`
	AssetID      string     `json:"asset_id" sql:"asset_id"`
	CveID        *string    `json:"cve_id" sql:"cve_id"`
	Title        string     `json:"title" sql:"title"`
	Severity     *Severity  `json:"severity" sql:"severity"`
	Status       VulnStatus `json:"status" sql:"status"`
	Description  *string    `json:"description" sql:"description"`
	Remediation  *string    `json:"remediation" sql:"remediation"`
	DiscoveredAt string     `json:"discovered_at" sql:"discovered_at"`
	ResolvedAt   *string    `json:"resolved_at" sql:"resolved_at"`
}

type VulnerabilityInsert struct {
	ID          string     `json:"id,omitempty"`
	AssetID     string     `json:"asset_id"`
	CveID       *string    `json:"cve_id,omitempty"`
	Title       string     `json:"title"`
	Severity    *Severity  `json:"severity,omitempty"`
	Status      VulnStatus `json:"status,omitempty"`
	Description *string    `json:"description,omitempty"`
	Remediation *string    `json:"remediation,omitempty"`
}

type VulnerabilityUpdate struct {
	Title       *string     `json:"title,omitempty"`
	Severity    *Severity   `json:"severity,omitempty"`
	Status      *VulnStatus `json:"status,omitempty"`
	Description *string     `json:"description,omitempty"`
	Remediation *string     `json:"remediation,omitempty"`
	ResolvedAt  *string     `json:"resolved_at,omitempty"`
}
