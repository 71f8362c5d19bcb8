// Carga de certificado desde .p12 (PKCS#12) o par PEM.

package facturae

import (
	"crypto/tls"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/pkcs12"

	"github.com/facturalia/facturas-api/pkg/config"
)

// LoadCertificate carga el certificado según la configuración. Si CertPath está
// vacío devuelve cert vacío y err nil (la API genera XML sin firmar).
func LoadCertificate(cfg config.FacturaeConfig) (tls.Certificate, error) {
	if cfg.CertPath == "" {
		return tls.Certificate{}, nil
	}
	if strings.HasSuffix(cfg.CertPath, ".p12") || strings.HasSuffix(cfg.CertPath, ".pfx") {
		return loadFromP12(cfg.CertPath, cfg.CertPassword)
	}
	return loadFromPEM(cfg.CertPath, cfg.CertKeyPath)
}

// loadFromP12 carga certificado y llave privada desde un archivo .p12/.pfx.
// El password puede ser vacío si el archivo no está protegido.
func loadFromP12(path, password string) (tls.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("leer p12: %w", err)
	}
	priv, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("decodificar p12: %w", err)
	}
	// pkcs12.Decode devuelve un solo certificado; para firmar basta el hoja.
	return tls.Certificate{
		Certificate: [][]byte{cert.Raw},
		PrivateKey:  priv,
		Leaf:        cert,
	}, nil
}

// loadFromPEM carga certificado y llave desde archivos PEM (por separado o combinados).
func loadFromPEM(certPath, keyPath string) (tls.Certificate, error) {
	if keyPath == "" {
		// Un solo archivo puede contener cert+key en PEM
		return tls.LoadX509KeyPair(certPath, certPath)
	}
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("cargar PEM: %w", err)
	}
	return cert, nil
}
