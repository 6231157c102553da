package fingerprint

// Script is evaluated in the page and returns the fingerprint as a JSON string.
// It only reads the DOM.
const Script = `(() => {
  const norm = (t) => (t || '').replace(/\s+/g, ' ').trim();
  const clip = (t, n) => norm(t).slice(0, n);
  const count = (sel) => document.querySelectorAll(sel).length;
  const firstText = (sel) => {
    const el = document.querySelector(sel);
    return el ? clip(el.textContent, 120) : null;
  };
  const box = (el) => {
    const r = el.getBoundingClientRect();
    return { x: r.x, y: r.y, w: r.width, h: r.height };
  };
  const bboxOf = (sel) => {
    const el = document.querySelector(sel);
    return el ? box(el) : null;
  };
  const isVisible = (el) => {
    const r = el.getBoundingClientRect();
    const style = window.getComputedStyle(el);
    return r.width > 0 && r.height > 0 && style.visibility !== 'hidden' && style.display !== 'none';
  };

  const sections = Array.from(document.querySelectorAll('header,main,section,footer')).slice(0, 20).map(el => ({
    tag: el.tagName.toLowerCase(),
    className: (el.getAttribute('class') || '').slice(0, 200)
  }));
  const navLinks = Array.from(document.querySelectorAll('.w-nav a, nav a')).map(a => norm(a.textContent)).filter(Boolean);
  const buttons = Array.from(document.querySelectorAll('button, a[role="button"], .button')).map(b => norm(b.textContent)).filter(Boolean);
  const ctas = buttons.filter(t => /demo|pricing|sign in|get a demo|view pricing/i.test(t));

  const interactive = Array.from(document.querySelectorAll('a[href], button, [role="button"]'))
    .filter(isVisible)
    .slice(0, 100)
    .map(el => {
      let href = el.getAttribute('href');
      if (href) {
        try { href = new URL(href, location.href).pathname; } catch (e) { href = null; }
      } else {
        href = null;
      }
      return { tag: el.tagName.toLowerCase(), text: clip(el.textContent, 120), href, bbox: box(el) };
    });

  const sectionBoxes = Array.from(document.querySelectorAll('section')).slice(0, 20).map((el, i) => ({
    index: i,
    className: (el.getAttribute('class') || '').slice(0, 120),
    bbox: box(el)
  }));

  return JSON.stringify({
    url: location.href,
    title: document.title,
    landmarks: {
      header: !!document.querySelector('header, .w-nav, nav'),
      footer: !!document.querySelector('footer'),
      heroLikely: !!document.querySelector('.hero, [class*="hero" i]')
    },
    counts: {
      h1: count('h1'), h2: count('h2'), h3: count('h3'),
      links: count('a[href]'), images: count('img'), videos: count('video'),
      sections: count('section'), buttons: buttons.length,
      navLinks: navLinks.length, navbars: count('.w-nav, nav'), dropdowns: count('.w-dropdown')
    },
    keyTexts: {
      h1: firstText('h1'),
      primaryCta: ctas.length ? ctas[0].slice(0, 120) : null,
      navFirst: navLinks.length ? navLinks[0].slice(0, 120) : null
    },
    components: {
      hasWNav: !!document.querySelector('.w-nav, .navbar_link, .navbar_menu'),
      hasNavbarLinkClass: !!document.querySelector('.navbar_link'),
      webflowScripts: Array.from(document.scripts || []).some(s => (s.src || '').includes('webflow'))
    },
    boxes: {
      header: bboxOf('header, .w-nav, nav'),
      hero: bboxOf('.hero, [class*="hero" i]'),
      footer: bboxOf('footer')
    },
    interactive,
    sectionBoxes,
    sections
  });
})()`
