package scan

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"flowsight/pkg/graph"
	"flowsight/pkg/schema"
)

func csharpScanner() *CSharpScanner {
	return NewCSharpScanner(Options{Categories: AllCategories()})
}

func registryWith(t *testing.T, path, content string) *schema.Registry {
	t.Helper()
	b := schema.NewBuilder()
	b.AddFile(path, content)
	return b.Freeze()
}

// padTo places a line of code at an exact 1-based line number.
func padTo(line int, code string) string {
	return strings.Repeat("\n", line-1) + code
}

func TestCSharp_EFQueryResolvesTableThroughRegistry(t *testing.T) {
	reg := registryWith(t, "Data/AppDbContext.cs", "public DbSet<User> Users { get; set; }")

	content := padTo(42, `var active = _context.Users.Where(u => u.IsActive).ToList();`)
	nodes := csharpScanner().Scan("Services/UserService.cs", content, reg)

	if len(nodes) != 1 {
		t.Fatalf("Expected 1 node, got %d", len(nodes))
	}
	n := nodes[0]
	if n.Type != graph.DatabaseRead {
		t.Errorf("Expected database_read, got %s", n.Type)
	}
	if n.TableName != "User" {
		t.Errorf("Expected table User, got %s", n.TableName)
	}
	if n.Location.LineNumber != 42 {
		t.Errorf("Expected line 42, got %d", n.Location.LineNumber)
	}
	if want := graph.NodeID("Services/UserService.cs", graph.DatabaseRead, 42); n.ID != want {
		t.Errorf("Expected deterministic id %s, got %s", want, n.ID)
	}
}

func TestCSharp_FirstMatchWinsPerLine(t *testing.T) {
	// The line matches both the database query and the transform
	// pattern; precedence says database wins and only one node is
	// emitted.
	content := `var names = _context.Users.Where(u => u.IsActive).Select(u => u.Name);`
	nodes := csharpScanner().Scan("Services/UserService.cs", content, nil)

	if len(nodes) != 1 {
		t.Fatalf("Expected 1 node, got %d", len(nodes))
	}
	if nodes[0].Type != graph.DatabaseRead {
		t.Errorf("Expected database_read to win precedence, got %s", nodes[0].Type)
	}
}

func TestCSharp_DisabledCategoryFallsThrough(t *testing.T) {
	cats := AllCategories()
	cats.Database = false
	s := NewCSharpScanner(Options{Categories: cats})

	content := `var names = _context.Users.Where(u => u.IsActive).Select(u => u.Name);`
	nodes := s.Scan("Services/UserService.cs", content, nil)

	if len(nodes) != 1 {
		t.Fatalf("Expected 1 node, got %d", len(nodes))
	}
	if nodes[0].Type != graph.DataTransform {
		t.Errorf("Expected transform to match with database disabled, got %s", nodes[0].Type)
	}
}

func TestCSharp_WriteAndSaveChanges(t *testing.T) {
	content := `_context.Orders.Add(order);
_context.SaveChanges();`
	nodes := csharpScanner().Scan("Services/OrderService.cs", content, nil)

	if len(nodes) != 2 {
		t.Fatalf("Expected 2 nodes, got %d", len(nodes))
	}
	if nodes[0].Type != graph.DatabaseWrite || nodes[0].TableName != "Orders" {
		t.Errorf("Unexpected first node: %s/%s", nodes[0].Type, nodes[0].TableName)
	}
	if nodes[1].Type != graph.DatabaseWrite {
		t.Errorf("Expected database_write for SaveChanges, got %s", nodes[1].Type)
	}
	if nodes[1].TableName != graph.UnknownValue {
		t.Errorf("SaveChanges without context should get the sentinel, got %s", nodes[1].TableName)
	}
}

func TestCSharp_BackwardScanFindsSQLTable(t *testing.T) {
	content := `var query = "SELECT * FROM Orders WHERE Total > 100";
var cmd = new SqlCommand(query, conn);
using var reader = cmd.ExecuteReader();`
	nodes := csharpScanner().Scan("Services/ReportService.cs", content, nil)

	if len(nodes) != 1 {
		t.Fatalf("Expected 1 node, got %d", len(nodes))
	}
	if nodes[0].Type != graph.DatabaseRead {
		t.Errorf("Expected database_read, got %s", nodes[0].Type)
	}
	if nodes[0].TableName != "Orders" {
		t.Errorf("Expected backward scan to find Orders, got %s", nodes[0].TableName)
	}
}

func TestCSharp_BackwardScanIsBounded(t *testing.T) {
	// The declaring SQL sits more than backwardWindow lines above the
	// reader; resolution must degrade to the sentinel, not find it.
	content := `var query = "SELECT * FROM Orders";` +
		strings.Repeat("\n// filler", 12) +
		"\nusing var reader = cmd.ExecuteReader();"
	nodes := csharpScanner().Scan("Services/ReportService.cs", content, nil)

	if len(nodes) != 1 {
		t.Fatalf("Expected 1 node, got %d", len(nodes))
	}
	if nodes[0].TableName != graph.UnknownValue {
		t.Errorf("Expected sentinel outside the window, got %s", nodes[0].TableName)
	}
}

func TestCSharp_HTTPCalls(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		method   string
		endpoint string
	}{
		{
			name:     "post with endpoint",
			line:     `var resp = await _http.PostAsync("https://api.example.com/orders", content);`,
			method:   "POST",
			endpoint: "https://api.example.com/orders",
		},
		{
			name:     "get from json",
			line:     `var user = await client.GetFromJsonAsync<User>("/api/users/1");`,
			method:   "GET",
			endpoint: "/api/users/1",
		},
		{
			name:     "send without literal",
			line:     `var resp = await _http.SendAsync(request);`,
			method:   graph.UnknownValue,
			endpoint: graph.UnknownValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes := csharpScanner().Scan("Clients/ApiClient.cs", tt.line, nil)
			if len(nodes) != 1 {
				t.Fatalf("Expected 1 node, got %d", len(nodes))
			}
			n := nodes[0]
			if n.Type != graph.APICall {
				t.Errorf("Expected api_call, got %s", n.Type)
			}
			if n.HTTPMethod != tt.method {
				t.Errorf("Expected method %s, got %s", tt.method, n.HTTPMethod)
			}
			if n.Endpoint != tt.endpoint {
				t.Errorf("Expected endpoint %s, got %s", tt.endpoint, n.Endpoint)
			}
		})
	}
}

func TestCSharp_InboundEndpointAttribute(t *testing.T) {
	content := `[HttpGet("api/users")]`
	nodes := csharpScanner().Scan("Controllers/UserController.cs", content, nil)

	if len(nodes) != 1 {
		t.Fatalf("Expected 1 node, got %d", len(nodes))
	}
	n := nodes[0]
	if n.Type != graph.APICall {
		t.Errorf("Expected api_call, got %s", n.Type)
	}
	if n.HTTPMethod != "GET" || n.Endpoint != "api/users" {
		t.Errorf("Unexpected method/endpoint: %s %s", n.HTTPMethod, n.Endpoint)
	}
	if n.Metadata["direction"] != "inbound" {
		t.Errorf("Expected inbound direction metadata, got %v", n.Metadata)
	}
}

func TestCSharp_CacheFileAndMessaging(t *testing.T) {
	tests := []struct {
		line string
		typ  graph.NodeType
	}{
		{`var cached = _cache.GetString("user:1");`, graph.CacheRead},
		{`_cache.SetString("user:1", json);`, graph.CacheWrite},
		{`var text = File.ReadAllText(path);`, graph.FileRead},
		{`File.WriteAllText(path, output);`, graph.FileWrite},
		{`await _bus.Publish(new OrderCreated(order.Id));`, graph.MessageSend},
		{`channel.BasicConsume("orders", false, consumer);`, graph.MessageReceive},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			nodes := csharpScanner().Scan("Services/Mixed.cs", tt.line, nil)
			if len(nodes) != 1 {
				t.Fatalf("Expected 1 node for %q, got %d", tt.line, len(nodes))
			}
			if nodes[0].Type != tt.typ {
				t.Errorf("Expected %s, got %s", tt.typ, nodes[0].Type)
			}
		})
	}
}

func TestCSharp_RazorTriggerResolvesCompanionHandler(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, "Pages"), 0755); err != nil {
		t.Fatal(err)
	}
	companion := `public partial class Counter
{
    private async Task SaveOrder()
    {
    }
}`
	if err := os.WriteFile(filepath.Join(tmpDir, "Pages", "Counter.razor.cs"), []byte(companion), 0644); err != nil {
		t.Fatal(err)
	}

	s := NewCSharpScanner(Options{
		Categories: AllCategories(),
		Companions: NewCompanionLoader(tmpDir),
	})

	markup := `<button @onclick="SaveOrder">Save</button>`
	nodes := s.Scan("Pages/Counter.razor", markup, nil)

	if len(nodes) != 1 {
		t.Fatalf("Expected 1 node, got %d", len(nodes))
	}
	n := nodes[0]
	if n.Type != graph.UITrigger {
		t.Errorf("Expected ui_trigger, got %s", n.Type)
	}
	if n.Metadata["handler"] != "SaveOrder" {
		t.Errorf("Expected handler SaveOrder, got %v", n.Metadata)
	}
	if n.Metadata["handler_file"] != "Pages/Counter.razor.cs" {
		t.Errorf("Expected companion file, got %s", n.Metadata["handler_file"])
	}
	if n.Metadata["handler_line"] != "3" {
		t.Errorf("Expected handler at line 3, got %s", n.Metadata["handler_line"])
	}
}

func TestCSharp_RazorTriggerWithoutCompanion(t *testing.T) {
	s := NewCSharpScanner(Options{
		Categories: AllCategories(),
		Companions: NewCompanionLoader(t.TempDir()),
	})

	markup := `<button @onclick="DeleteItem">Delete</button>`
	nodes := s.Scan("Pages/Orphan.razor", markup, nil)

	if len(nodes) != 1 {
		t.Fatalf("Expected 1 node, got %d", len(nodes))
	}
	n := nodes[0]
	if n.Metadata["handler"] != "DeleteItem" {
		t.Errorf("Expected handler metadata, got %v", n.Metadata)
	}
	if _, ok := n.Metadata["handler_file"]; ok {
		t.Error("Did not expect handler_file without a companion")
	}
}
