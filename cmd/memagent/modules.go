package main

// Compiled-in modules. Each registers itself with the core registry.
import (
	_ "github.com/flemzord/memagent/internal/gateway"
	_ "github.com/flemzord/memagent/modules/memory/chromem"
	_ "github.com/flemzord/memagent/modules/memory/mem0"
	_ "github.com/flemzord/memagent/modules/memory/sqlite"
	_ "github.com/flemzord/memagent/modules/memory/vector"
	_ "github.com/flemzord/memagent/modules/provider/groq"
)
