package scan

import (
	"os"
	"path/filepath"
	"testing"

	"flowsight/pkg/graph"
	"flowsight/pkg/schema"
)

func tsScanner() *TypeScriptScanner {
	return NewTypeScriptScanner(Options{Categories: AllCategories()})
}

func TestTypeScript_ModelQueryResolvesCollection(t *testing.T) {
	b := schema.NewBuilder()
	b.AddFile("models/user.ts", `const User = mongoose.model('User', userSchema, 'app_users');`)
	reg := b.Freeze()

	nodes := tsScanner().Scan("services/users.ts", `const users = await User.find({ active: true });`, reg)

	if len(nodes) != 1 {
		t.Fatalf("Expected 1 node, got %d", len(nodes))
	}
	n := nodes[0]
	if n.Type != graph.DatabaseRead {
		t.Errorf("Expected database_read, got %s", n.Type)
	}
	if n.TableName != "app_users" {
		t.Errorf("Expected collection app_users, got %s", n.TableName)
	}
}

func TestTypeScript_WriteFallsBackToToken(t *testing.T) {
	nodes := tsScanner().Scan("services/orders.ts", `await Order.updateOne({ _id }, { $set: patch });`, nil)

	if len(nodes) != 1 {
		t.Fatalf("Expected 1 node, got %d", len(nodes))
	}
	n := nodes[0]
	if n.Type != graph.DatabaseWrite {
		t.Errorf("Expected database_write, got %s", n.Type)
	}
	if n.TableName != "Order" {
		t.Errorf("Expected structural token Order, got %s", n.TableName)
	}
}

func TestTypeScript_KnexQuery(t *testing.T) {
	nodes := tsScanner().Scan("repo/users.ts", `const rows = await knex('users').where({ active: true });`, nil)

	if len(nodes) != 1 {
		t.Fatalf("Expected 1 node, got %d", len(nodes))
	}
	if nodes[0].Type != graph.DatabaseRead || nodes[0].TableName != "users" {
		t.Errorf("Unexpected node: %s/%s", nodes[0].Type, nodes[0].TableName)
	}
}

func TestTypeScript_HTTPCalls(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		method   string
		endpoint string
	}{
		{
			name:     "axios post",
			line:     `await axios.post('/api/orders', payload);`,
			method:   "POST",
			endpoint: "/api/orders",
		},
		{
			name:     "fetch with method option",
			line:     `const res = await fetch('/api/users', { method: 'POST', body });`,
			method:   "POST",
			endpoint: "/api/users",
		},
		{
			name:     "fetch defaults to GET",
			line:     `const res = await fetch('/api/users');`,
			method:   "GET",
			endpoint: "/api/users",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes := tsScanner().Scan("api/client.ts", tt.line, nil)
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

func TestTypeScript_CategoryTable(t *testing.T) {
	tests := []struct {
		line string
		typ  graph.NodeType
	}{
		{`await producer.send({ topic: 'orders', messages });`, graph.MessageSend},
		{`await channel.consume('orders', handleMessage);`, graph.MessageReceive},
		{`const cached = await redis.get('user:1');`, graph.CacheRead},
		{`await redis.setex('user:1', 3600, json);`, graph.CacheWrite},
		{`const raw = fs.readFileSync(path, 'utf8');`, graph.FileRead},
		{`fs.writeFileSync(outPath, JSON.stringify(report));`, graph.FileWrite},
		{`const names = users.map(u => u.name);`, graph.DataTransform},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			nodes := tsScanner().Scan("services/mixed.ts", tt.line, nil)
			if len(nodes) != 1 {
				t.Fatalf("Expected 1 node for %q, got %d", tt.line, len(nodes))
			}
			if nodes[0].Type != tt.typ {
				t.Errorf("Expected %s, got %s", tt.typ, nodes[0].Type)
			}
		})
	}
}

func TestTypeScript_ReactTrigger(t *testing.T) {
	nodes := tsScanner().Scan("components/Save.tsx", `<button onClick={handleSave}>Save</button>`, nil)

	if len(nodes) != 1 {
		t.Fatalf("Expected 1 node, got %d", len(nodes))
	}
	n := nodes[0]
	if n.Type != graph.UITrigger {
		t.Errorf("Expected ui_trigger, got %s", n.Type)
	}
	if n.Metadata["handler"] != "handleSave" {
		t.Errorf("Expected handler handleSave, got %v", n.Metadata)
	}
}

func TestTypeScript_AngularTemplateCompanion(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, "src"), 0755); err != nil {
		t.Fatal(err)
	}
	companion := `export class OrderComponent {
  saveOrder() {
    this.service.save(this.order);
  }
}`
	if err := os.WriteFile(filepath.Join(tmpDir, "src", "order.component.ts"), []byte(companion), 0644); err != nil {
		t.Fatal(err)
	}

	s := NewTypeScriptScanner(Options{
		Categories: AllCategories(),
		Companions: NewCompanionLoader(tmpDir),
	})

	markup := `<button (click)="saveOrder()">Save</button>`
	nodes := s.Scan("src/order.component.html", markup, nil)

	if len(nodes) != 1 {
		t.Fatalf("Expected 1 node, got %d", len(nodes))
	}
	n := nodes[0]
	if n.Metadata["handler"] != "saveOrder" {
		t.Errorf("Expected handler saveOrder, got %v", n.Metadata)
	}
	if n.Metadata["handler_file"] != "src/order.component.ts" {
		t.Errorf("Expected companion file, got %s", n.Metadata["handler_file"])
	}
	if n.Metadata["handler_line"] != "2" {
		t.Errorf("Expected handler at line 2, got %s", n.Metadata["handler_line"])
	}
}

func TestTypeScript_VueTemplateTrigger(t *testing.T) {
	nodes := tsScanner().Scan("components/Cart.vue", `<button @click="checkout">Buy</button>`, nil)

	if len(nodes) != 1 {
		t.Fatalf("Expected 1 node, got %d", len(nodes))
	}
	if nodes[0].Metadata["handler"] != "checkout" {
		t.Errorf("Expected handler checkout, got %v", nodes[0].Metadata)
	}
}
