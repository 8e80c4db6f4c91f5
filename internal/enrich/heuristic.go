package enrich

import (
	"sort"
	"strings"

	"github.com/okarpov/skillfit/internal/skill"
	"github.com/okarpov/skillfit/internal/taxonomy"
)

// Heuristic confidence is capped below the threshold needed to trust a skill
// for cross-domain decisions; only the external collaborator can raise it.
const (
	HeuristicConfidenceCap = 0.55
	heuristicBase          = 0.35
	heuristicPerHit        = 0.10
	unknownConfidence      = 0.20

	// Two categories scoring within this margin of each other make the
	// classification ambiguous.
	ambiguousMargin     = 0.001
	ambiguousConfidence = 0.30
)

type keywordEntry struct {
	category  taxonomy.Category
	component string
}

// keywords maps whole tokens of a normalized skill name to a category vote.
// Matching is token-exact on purpose: "java" must never vote for
// "javascript".
var keywords = map[string]keywordEntry{
	"python":      {taxonomy.Programming, "python"},
	"java":        {taxonomy.Programming, "java"},
	"javascript":  {taxonomy.Programming, "javascript"},
	"typescript":  {taxonomy.Programming, "typescript"},
	"go":          {taxonomy.Programming, "go"},
	"golang":      {taxonomy.Programming, "go"},
	"c++":         {taxonomy.Programming, "c++"},
	"c#":          {taxonomy.Programming, "c#"},
	"ruby":        {taxonomy.Programming, "ruby"},
	"php":         {taxonomy.Programming, "php"},
	"rust":        {taxonomy.Programming, "rust"},
	"programming": {taxonomy.Programming, "software-development"},
	"development": {taxonomy.Programming, "software-development"},
	"developer":   {taxonomy.Programming, "software-development"},
	"software":    {taxonomy.Programming, "software-development"},
	"git":         {taxonomy.Programming, "version-control"},
	"api":         {taxonomy.Programming, "api-design"},

	"sql":        {taxonomy.DataEngineering, "sql"},
	"database":   {taxonomy.DataEngineering, "databases"},
	"databases":  {taxonomy.DataEngineering, "databases"},
	"postgres":   {taxonomy.DataEngineering, "postgresql"},
	"postgresql": {taxonomy.DataEngineering, "postgresql"},
	"mysql":      {taxonomy.DataEngineering, "mysql"},
	"oracle":     {taxonomy.DataEngineering, "oracle-db"},
	"etl":        {taxonomy.DataEngineering, "etl"},
	"spark":      {taxonomy.DataEngineering, "spark"},
	"hadoop":     {taxonomy.DataEngineering, "hadoop"},
	"pandas":     {taxonomy.DataEngineering, "pandas"},
	"analytics":  {taxonomy.DataEngineering, "analytics"},
	"warehouse":  {taxonomy.DataEngineering, "data-warehousing"},

	"kubernetes": {taxonomy.Infrastructure, "kubernetes"},
	"docker":     {taxonomy.Infrastructure, "containers"},
	"linux":      {taxonomy.Infrastructure, "linux"},
	"aws":        {taxonomy.Infrastructure, "aws"},
	"azure":      {taxonomy.Infrastructure, "azure"},
	"gcp":        {taxonomy.Infrastructure, "gcp"},
	"terraform":  {taxonomy.Infrastructure, "terraform"},
	"ansible":    {taxonomy.Infrastructure, "ansible"},
	"devops":     {taxonomy.Infrastructure, "ci-cd"},
	"cloud":      {taxonomy.Infrastructure, "cloud-platforms"},
	"networking": {taxonomy.Infrastructure, "networking"},

	"sap":      {taxonomy.EnterpriseERP, "sap"},
	"fico":     {taxonomy.EnterpriseERP, "sap-fico"},
	"abap":     {taxonomy.EnterpriseERP, "abap"},
	"erp":      {taxonomy.EnterpriseERP, "erp-systems"},
	"s/4hana":  {taxonomy.EnterpriseERP, "s4hana"},
	"dynamics": {taxonomy.EnterpriseERP, "ms-dynamics"},
	"navision": {taxonomy.EnterpriseERP, "ms-dynamics"},

	"accounting":  {taxonomy.Finance, "accounting"},
	"bookkeeping": {taxonomy.Finance, "bookkeeping"},
	"controlling": {taxonomy.Finance, "controlling"},
	"audit":       {taxonomy.Finance, "auditing"},
	"tax":         {taxonomy.Finance, "tax"},
	"payroll":     {taxonomy.Finance, "payroll"},
	"ifrs":        {taxonomy.Finance, "ifrs"},
	"gaap":        {taxonomy.Finance, "gaap"},
	"budgeting":   {taxonomy.Finance, "budgeting"},
	"invoicing":   {taxonomy.Finance, "invoicing"},
	"treasury":    {taxonomy.Finance, "treasury"},

	"excel":          {taxonomy.OfficeAdmin, "excel"},
	"word":           {taxonomy.OfficeAdmin, "word-processing"},
	"powerpoint":     {taxonomy.OfficeAdmin, "presentations"},
	"outlook":        {taxonomy.OfficeAdmin, "email"},
	"office":         {taxonomy.OfficeAdmin, "ms-office"},
	"scheduling":     {taxonomy.OfficeAdmin, "scheduling"},
	"administration": {taxonomy.OfficeAdmin, "administration"},
	"typing":         {taxonomy.OfficeAdmin, "typing"},

	"presentation": {taxonomy.Communication, "presenting"},
	"writing":      {taxonomy.Communication, "writing"},
	"negotiation":  {taxonomy.Communication, "negotiation"},
	"customer":     {taxonomy.Communication, "customer-service"},
	"support":      {taxonomy.Communication, "customer-service"},
	"sales":        {taxonomy.Communication, "sales"},
	"marketing":    {taxonomy.Communication, "marketing"},

	"leadership":  {taxonomy.Management, "leadership"},
	"management":  {taxonomy.Management, "people-management"},
	"project":     {taxonomy.Management, "project-management"},
	"scrum":       {taxonomy.Management, "scrum"},
	"agile":       {taxonomy.Management, "agile"},
	"kanban":      {taxonomy.Management, "kanban"},
	"planning":    {taxonomy.Management, "planning"},
	"stakeholder": {taxonomy.Management, "stakeholder-management"},

	"photoshop":   {taxonomy.DesignMedia, "photoshop"},
	"illustrator": {taxonomy.DesignMedia, "illustrator"},
	"figma":       {taxonomy.DesignMedia, "figma"},
	"design":      {taxonomy.DesignMedia, "design"},
	"ux":          {taxonomy.DesignMedia, "ux"},
	"ui":          {taxonomy.DesignMedia, "ui"},
	"video":       {taxonomy.DesignMedia, "video-editing"},
	"animation":   {taxonomy.DesignMedia, "animation"},
}

type categoryProfile struct {
	contexts  []string
	functions []string
}

// profiles supply the partial context/function attributes the heuristic can
// infer from the category alone.
var profiles = map[taxonomy.Category]categoryProfile{
	taxonomy.Programming:     {[]string{"software-delivery"}, []string{"automation", "product-development"}},
	taxonomy.DataEngineering: {[]string{"software-delivery", "analytics"}, []string{"reporting", "data-quality"}},
	taxonomy.Infrastructure:  {[]string{"operations"}, []string{"automation", "reliability"}},
	taxonomy.EnterpriseERP:   {[]string{"office", "regulated-finance"}, []string{"process-compliance"}},
	taxonomy.Finance:         {[]string{"office", "regulated-finance"}, []string{"reporting", "risk-reduction"}},
	taxonomy.OfficeAdmin:     {[]string{"office"}, []string{"organization"}},
	taxonomy.Communication:   {[]string{"customer-facing", "office"}, []string{"relationship-building"}},
	taxonomy.Management:      {[]string{"office"}, []string{"coordination", "risk-reduction"}},
	taxonomy.DesignMedia:     {[]string{"studio"}, []string{"product-development"}},
}

type heuristicResult struct {
	category   taxonomy.Category
	components []string
	contexts   []string
	functions  []string
	confidence float64
	ambiguous  bool
}

// classify assigns a tentative category from whole-token keyword votes. The
// confidence is always capped at HeuristicConfidenceCap.
func classify(normalized string) heuristicResult {
	votes := make(map[taxonomy.Category]int)
	componentsByCategory := make(map[taxonomy.Category][]string)

	for _, token := range strings.Fields(normalized) {
		entry, ok := keywords[token]
		if !ok {
			continue
		}
		votes[entry.category]++
		componentsByCategory[entry.category] = append(componentsByCategory[entry.category], entry.component)
	}

	if len(votes) == 0 {
		return heuristicResult{
			category:   taxonomy.General,
			confidence: unknownConfidence,
		}
	}

	ranked := make([]taxonomy.Category, 0, len(votes))
	for c := range votes {
		ranked = append(ranked, c)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if votes[ranked[i]] != votes[ranked[j]] {
			return votes[ranked[i]] > votes[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})

	top := ranked[0]
	res := heuristicResult{
		category:   top,
		components: skill.NormalizeSet(componentsByCategory[top]),
		confidence: heuristicBase + heuristicPerHit*float64(votes[top]),
	}
	if res.confidence > HeuristicConfidenceCap {
		res.confidence = HeuristicConfidenceCap
	}

	if profile, ok := profiles[top]; ok {
		res.contexts = skill.NormalizeSet(profile.contexts)
		res.functions = skill.NormalizeSet(profile.functions)
	}

	// Near-equal votes for two unrelated categories: keep the top one but
	// surface the ambiguity as low confidence instead of silently picking.
	if len(ranked) > 1 && float64(votes[top])-float64(votes[ranked[1]]) <= ambiguousMargin {
		res.ambiguous = true
		res.confidence = ambiguousConfidence
	}

	return res
}
