package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/damnyan/caxur/internal/token"
)

// Genera el par de claves Ed25519 con el que se firman los access tokens.
// La privada queda en PKCS#8 PEM y la pública en PKIX PEM, listas para
// jwt.private_key_path / jwt.public_key_path del config.
func main() {
	var (
		outDir = flag.String("out", "keys", "directorio de salida")
		force  = flag.Bool("force", false, "sobrescribir claves existentes")
	)
	flag.Parse()

	privPath := filepath.Join(*outDir, "private_key.pem")
	pubPath := filepath.Join(*outDir, "public_key.pem")

	if !*force {
		for _, p := range []string{privPath, pubPath} {
			if _, err := os.Stat(p); err == nil {
				log.Fatalf("%s ya existe (use -force para sobrescribir)", p)
			}
		}
	}

	if err := os.MkdirAll(*outDir, 0o750); err != nil {
		log.Fatalf("mkdir: %v", err)
	}

	pub, priv, err := token.GenerateEd25519()
	if err != nil {
		log.Fatalf("keygen: %v", err)
	}

	privPEM, err := token.MarshalPrivateKeyPEM(priv)
	if err != nil {
		log.Fatalf("marshal private: %v", err)
	}
	pubPEM, err := token.MarshalPublicKeyPEM(pub)
	if err != nil {
		log.Fatalf("marshal public: %v", err)
	}

	if err := os.WriteFile(privPath, privPEM, 0o600); err != nil {
		log.Fatalf("write private: %v", err)
	}
	if err := os.WriteFile(pubPath, pubPEM, 0o644); err != nil {
		log.Fatalf("write public: %v", err)
	}

	fmt.Printf("OK %s\nOK %s\n", privPath, pubPath)
}
